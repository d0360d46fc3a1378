package api

import (
	"fmt"
	"log/slog"

	"streamfinder/internal/config"
	"streamfinder/internal/history"
	"streamfinder/internal/httpx"
	"streamfinder/internal/identification/overrides"
	"streamfinder/internal/identification/tmdb"
	"streamfinder/internal/metrics"
	"streamfinder/internal/sources/ophim"
	"streamfinder/internal/sources/phimapi"
	"streamfinder/internal/streams"
)

// Dependencies are the optional collaborators NewFromConfig wires in.
type Dependencies struct {
	Logger  *slog.Logger
	History *history.Store
	Metrics *metrics.Recorder
}

// NewFromConfig builds the catalog clients, resolver and service from cfg.
// All clients share one httpx.Client so pacing applies across catalogs. A
// missing TMDB key leaves canonical lookup disabled rather than failing.
func NewFromConfig(cfg *config.Config, deps Dependencies) (*StreamService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	policy, err := streams.ParseMissingStreamPolicy(cfg.Streams.MissingStreamPolicy)
	if err != nil {
		return nil, err
	}
	settings := cfg.SourceSettings()
	client := httpx.New(httpx.Options{
		Timeout:           settings.Timeout,
		RequestsPerSecond: settings.RequestsPerSecond,
		UserAgent:         settings.UserAgent,
	})

	idCatalog := phimapi.New(settings.PhimAPIBaseURL,
		phimapi.WithHTTPClient(client),
		phimapi.WithLogger(deps.Logger),
	)
	searchOpts := []ophim.Option{
		ophim.WithHTTPClient(client),
		ophim.WithLogger(deps.Logger),
		ophim.WithMaxKeywords(cfg.Streams.MaxKeywords),
	}
	if pinned := overrides.NewCatalog(cfg.Streams.OverridesFile, deps.Logger); pinned != nil {
		searchOpts = append(searchOpts, ophim.WithOverrides(pinned))
	}
	searchCatalog := ophim.New(settings.OphimBaseURL, searchOpts...)
	resolver := streams.NewResolver(idCatalog, searchCatalog,
		streams.WithPolicy(policy),
		streams.WithLogger(deps.Logger),
	)

	opts := []ServiceOption{
		WithSearcher(searchCatalog),
		WithLogger(deps.Logger),
		WithMetrics(deps.Metrics),
	}
	if deps.History != nil {
		opts = append(opts, WithHistory(deps.History))
	}
	if settings.TMDBAPIKey != "" {
		lookup, err := tmdb.New(settings.TMDBAPIKey, settings.TMDBBaseURL, settings.TMDBLanguage, tmdb.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("tmdb client: %w", err)
		}
		opts = append(opts, WithCanonicalLookup(lookup))
	}
	return NewStreamService(resolver, opts...), nil
}
