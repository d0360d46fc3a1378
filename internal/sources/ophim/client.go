package ophim

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"streamfinder/internal/httpx"
	"streamfinder/internal/identification"
	"streamfinder/internal/identification/overrides"
	"streamfinder/internal/logging"
	"streamfinder/internal/services"
	"streamfinder/internal/streams"
)

// DefaultBaseURL is the public Ophim v1 API root.
const DefaultBaseURL = "https://ophim1.com/v1/api"

// Client talks to the search-based catalog. It cannot be queried by TMDB id,
// so Episodes resolves the matching entry by keyword search first.
type Client struct {
	baseURL     string
	http        *httpx.Client
	logger      *slog.Logger
	maxKeywords int
	overrides   SlugOverrides
}

// SlugOverrides pins canonical ids to catalog slugs, bypassing search.
type SlugOverrides interface {
	Lookup(mediaType streams.MediaType, id string) (overrides.Override, bool, error)
}

var _ streams.SearchCatalog = (*Client)(nil)

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

// WithMaxKeywords caps the number of search keywords tried per resolution.
func WithMaxKeywords(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxKeywords = n
		}
	}
}

// WithOverrides consults pinned slugs before searching.
func WithOverrides(o SlugOverrides) Option {
	return func(c *Client) {
		if o != nil {
			c.overrides = o
		}
	}
}

// New creates an Ophim client rooted at baseURL.
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
	client.logger = logging.NewComponentLogger(client.logger, string(streams.SourceB))
	return client
}

// Search returns the catalog entries matching keyword, in catalog order, with
// every tmdb id the catalog reports.
func (c *Client) Search(ctx context.Context, keyword string) ([]streams.CatalogCandidate, error) {
	return c.search(ctx, keyword, "")
}

// searchFor is the search used while resolving a canonical record of
// mediaType: tmdb ids of the other kind are not reported.
func (c *Client) searchFor(mediaType streams.MediaType) identification.SearchFunc {
	return func(ctx context.Context, keyword string) ([]streams.CatalogCandidate, error) {
		return c.search(ctx, keyword, mediaType)
	}
}

func (c *Client) search(ctx context.Context, keyword string, mediaType streams.MediaType) ([]streams.CatalogCandidate, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, services.Wrap(services.ErrValidation, "ophim", "search", "keyword must not be empty", nil)
	}
	var payload searchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/tim-kiem", url.Values{"keyword": {keyword}}, &payload); err != nil {
		return nil, err
	}
	candidates := make([]streams.CatalogCandidate, 0, len(payload.Data.Items))
	for _, item := range payload.Data.Items {
		candidate := item.candidate(mediaType)
		if candidate.Slug == "" {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// FetchDetail returns the episode payload for a catalog slug.
func (c *Client) FetchDetail(ctx context.Context, slug string) (streams.Payload, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return streams.Payload{}, services.Wrap(services.ErrValidation, "ophim", "detail", "slug must not be empty", nil)
	}
	var payload detailResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/phim/"+url.PathEscape(slug), nil, &payload); err != nil {
		return streams.Payload{}, err
	}
	if payload.Data.Item == nil || payload.Data.Item.Episodes == nil {
		return streams.Payload{}, services.Wrap(services.ErrSchema, "ophim", "detail", "no episodes for "+slug, nil)
	}
	return streams.Payload{Servers: payload.Data.Item.Episodes}, nil
}

// Episodes runs search, match and detail for canonical. Any failure, or the
// absence of a matching entry, yields the empty payload; the detail endpoint
// is only called once a candidate has been selected.
func (c *Client) Episodes(ctx context.Context, canonical streams.CanonicalRecord) streams.Payload {
	logger := logging.WithContext(ctx, c.logger)
	start := time.Now()

	candidate, ok := c.pinnedCandidate(logger, canonical)
	if !ok {
		candidate, ok = identification.ResolveCandidate(ctx, canonical, c.searchFor(canonical.MediaType), identification.SearchOptions{
			Timeout:     c.http.Timeout(),
			MaxKeywords: c.maxKeywords,
			Logger:      logger,
		})
	}
	if !ok {
		logger.Debug("ophim has no matching entry",
			logging.String("canonical_id", canonical.ID),
			logging.Duration("elapsed", time.Since(start)),
		)
		return streams.Payload{}
	}

	payload, err := c.FetchDetail(ctx, candidate.Slug)
	if err != nil {
		logging.WarnWithContext(logger, "ophim detail fetch failed", "catalog_detail_failed",
			logging.String("slug", candidate.Slug),
			logging.String("canonical_id", canonical.ID),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Duration("elapsed", time.Since(start)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ophim availability"),
			logging.String(logging.FieldImpact, "ophim contributes no episodes"),
		)
		return streams.Payload{}
	}
	logger.Debug("ophim detail fetched",
		logging.String("slug", candidate.Slug),
		logging.Int("servers", len(payload.Servers)),
		logging.Int("episodes", payload.EpisodeCount()),
		logging.Duration("elapsed", time.Since(start)),
	)
	return payload
}

func (c *Client) pinnedCandidate(logger *slog.Logger, canonical streams.CanonicalRecord) (streams.CatalogCandidate, bool) {
	if c.overrides == nil || !canonical.HasID() {
		return streams.CatalogCandidate{}, false
	}
	pinned, ok, err := c.overrides.Lookup(canonical.MediaType, canonical.ID)
	if err != nil {
		logging.WarnWithContext(logger, "slug overrides unreadable", "overrides_invalid",
			logging.String("canonical_id", canonical.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the overrides file JSON"),
			logging.String(logging.FieldImpact, "falling back to keyword search"),
		)
		return streams.CatalogCandidate{}, false
	}
	if !ok {
		return streams.CatalogCandidate{}, false
	}
	logger.Debug("ophim slug pinned",
		logging.Args(append(logging.DecisionAttrs("catalog_match", "override", "slug pinned for canonical id"),
			logging.String("canonical_id", canonical.ID),
			logging.String("slug", pinned.Slug),
		)...)...,
	)
	return streams.CatalogCandidate{Slug: pinned.Slug, ExternalRefID: pinned.TMDBID}, true
}
