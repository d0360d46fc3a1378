package phimapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"streamfinder/internal/httpx"
	"streamfinder/internal/logging"
	"streamfinder/internal/services"
	"streamfinder/internal/streams"
)

// DefaultBaseURL is the public id-keyed endpoint.
const DefaultBaseURL = "https://phimapi.com/tmdb"

type response struct {
	Status   *bool                 `json:"status"`
	Episodes []streams.ServerGroup `json:"episodes"`
}

// Client looks works up in PhimAPI by their TMDB id.
type Client struct {
	baseURL string
	http    *httpx.Client
	logger  *slog.Logger
}

var _ streams.IDCatalog = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the shared HTTP client.
func WithHTTPClient(client *httpx.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger attaches a logger for contained failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a PhimAPI client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		baseURL: baseURL,
		http:    httpx.New(httpx.Options{}),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, string(streams.SourceA))
	return client
}

// Lookup fetches the raw payload for id, reporting failures to the caller.
func (c *Client) Lookup(ctx context.Context, mediaType streams.MediaType, id string) (streams.Payload, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return streams.Payload{}, services.Wrap(services.ErrValidation, "phimapi", "lookup", "id must not be empty", nil)
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, mediaType.PathSegment(), url.PathEscape(id))

	var payload response
	if err := c.http.GetJSON(ctx, endpoint, nil, &payload); err != nil {
		return streams.Payload{}, err
	}
	// A missing status is read the same as status false: no entry for id.
	if payload.Status == nil || !*payload.Status {
		return streams.Payload{}, services.Wrap(services.ErrNotFound, "phimapi", "lookup", "no entry for "+id, nil)
	}
	if payload.Episodes == nil {
		return streams.Payload{}, services.Wrap(services.ErrSchema, "phimapi", "lookup", "response has no episodes", nil)
	}
	return streams.Payload{Servers: payload.Episodes}, nil
}

// FetchByID returns the episode payload for id, or the empty payload on any
// failure. Failures are logged, never returned.
func (c *Client) FetchByID(ctx context.Context, mediaType streams.MediaType, id string) streams.Payload {
	logger := logging.WithContext(ctx, c.logger)
	start := time.Now()
	payload, err := c.Lookup(ctx, mediaType, id)
	if err != nil {
		kind := services.FailureKind(err)
		if kind == "not_found" {
			logger.Debug("phimapi has no entry",
				logging.String("id", id),
				logging.String("media_type", string(mediaType)),
			)
			return streams.Payload{}
		}
		logging.WarnWithContext(logger, "phimapi lookup failed", "catalog_lookup_failed",
			logging.String("id", id),
			logging.String("media_type", string(mediaType)),
			logging.String("failure_kind", kind),
			logging.Duration("elapsed", time.Since(start)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check phimapi availability"),
			logging.String(logging.FieldImpact, "phimapi contributes no episodes"),
		)
		return streams.Payload{}
	}
	logger.Debug("phimapi lookup completed",
		logging.String("id", id),
		logging.Int("servers", len(payload.Servers)),
		logging.Int("episodes", payload.EpisodeCount()),
		logging.Duration("elapsed", time.Since(start)),
	)
	return payload
}
