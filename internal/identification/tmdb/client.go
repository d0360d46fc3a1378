package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"streamfinder/internal/httpx"
	"streamfinder/internal/services"
	"streamfinder/internal/streams"
)

// DefaultLanguage is used when no language is configured. Localized titles are
// what the Vietnamese catalogs index.
const DefaultLanguage = "vi-VN"

// Result is the subset of a TMDB movie or TV record the catalogs are matched
// on. Search results carry media_type; detail lookups get it filled in.
type Result struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Name          string `json:"name"`
	OriginalTitle string `json:"original_title"`
	OriginalName  string `json:"original_name"`
	ReleaseDate   string `json:"release_date"`
	FirstAirDate  string `json:"first_air_date"`
	MediaType     string `json:"media_type"`
}

// DisplayTitle returns the localized title for movies or the name for shows.
func (r Result) DisplayTitle() string {
	if strings.TrimSpace(r.Title) != "" {
		return strings.TrimSpace(r.Title)
	}
	return strings.TrimSpace(r.Name)
}

// DisplayOriginalTitle returns original_title or original_name.
func (r Result) DisplayOriginalTitle() string {
	if strings.TrimSpace(r.OriginalTitle) != "" {
		return strings.TrimSpace(r.OriginalTitle)
	}
	return strings.TrimSpace(r.OriginalName)
}

// Date returns release_date or first_air_date.
func (r Result) Date() string {
	if strings.TrimSpace(r.ReleaseDate) != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// Canonical converts the result into the record the catalogs are matched
// against.
func (r Result) Canonical(mediaType streams.MediaType) streams.CanonicalRecord {
	if parsed, ok := streams.ParseMediaType(r.MediaType); ok && mediaType == "" {
		mediaType = parsed
	}
	record := streams.CanonicalRecord{
		Title:         r.DisplayTitle(),
		OriginalTitle: r.DisplayOriginalTitle(),
		ReleaseYear:   streams.YearFromDate(r.Date()),
		MediaType:     mediaType,
	}
	if r.ID > 0 {
		record.ID = strconv.FormatInt(r.ID, 10)
	}
	return record
}

// Response is the first page of a TMDB search.
type Response struct {
	Results []Result `json:"results"`
}

// Lookup defines the TMDB operations streamfinder uses.
type Lookup interface {
	Canonical(ctx context.Context, mediaType streams.MediaType, id string) (streams.CanonicalRecord, error)
	SearchMulti(ctx context.Context, query string, year int) (*Response, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	http     *httpx.Client
}

var _ Lookup = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *httpx.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}
	client := &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		http:     httpx.New(httpx.Options{}),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	return params
}

// details loads /movie/{id} or /tv/{id}.
func (c *Client) details(ctx context.Context, mediaType streams.MediaType, id string) (*Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "details", "id must not be empty", nil)
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, mediaType.PathSegment(), url.PathEscape(id))

	var payload Result
	if err := c.http.GetJSON(ctx, endpoint, c.params(), &payload); err != nil {
		return nil, fmt.Errorf("tmdb %s details: %w", mediaType.PathSegment(), err)
	}
	if payload.ID <= 0 {
		return nil, services.Wrap(services.ErrSchema, "tmdb", "details", "response carries no id", nil)
	}
	payload.MediaType = mediaType.PathSegment()
	return &payload, nil
}

// Canonical fetches the canonical record for a movie or series id.
func (c *Client) Canonical(ctx context.Context, mediaType streams.MediaType, id string) (streams.CanonicalRecord, error) {
	if mediaType == "" {
		mediaType = streams.MediaMovie
	}
	result, err := c.details(ctx, mediaType, id)
	if err != nil {
		return streams.CanonicalRecord{}, err
	}
	return result.Canonical(mediaType), nil
}

// SearchMulti performs a TMDB multi search across movies and shows. People
// results are dropped.
func (c *Client) SearchMulti(ctx context.Context, query string, year int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := c.params()
	params.Set("query", query)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var payload Response
	if err := c.http.GetJSON(ctx, c.baseURL+"/search/multi", params, &payload); err != nil {
		return nil, fmt.Errorf("tmdb multi search: %w", err)
	}
	filtered := payload.Results[:0]
	for _, result := range payload.Results {
		if result.MediaType == "movie" || result.MediaType == "tv" {
			filtered = append(filtered, result)
		}
	}
	payload.Results = filtered
	return &payload, nil
}
