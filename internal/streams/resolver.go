package streams

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"streamfinder/internal/logging"
	"streamfinder/internal/services"
)

// IDCatalog looks a work up directly by its canonical identifier. Failures are
// reported as an empty payload.
type IDCatalog interface {
	FetchByID(ctx context.Context, mediaType MediaType, id string) Payload
}

// SearchCatalog runs the search, match and detail pipeline for a canonical
// record. Failures are reported as an empty payload.
type SearchCatalog interface {
	Episodes(ctx context.Context, canonical CanonicalRecord) Payload
}

// Request is the input to ResolveStreams.
type Request struct {
	MediaType MediaType
	Canonical CanonicalRecord
}

// Resolver fans a request out to both catalogs and merges the normalized
// episodes. It holds no per-request state.
type Resolver struct {
	idCatalog     IDCatalog
	searchCatalog SearchCatalog
	policy        MissingStreamPolicy
	logger        *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPolicy overrides the missing-stream policy applied to both sources.
func WithPolicy(policy MissingStreamPolicy) Option {
	return func(r *Resolver) {
		if policy != "" {
			r.policy = policy
		}
	}
}

// WithLogger attaches a logger for contained failures and summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver builds a Resolver. Either catalog may be nil, in which case its
// side of the result is always empty.
func NewResolver(idCatalog IDCatalog, searchCatalog SearchCatalog, opts ...Option) *Resolver {
	r := &Resolver{
		idCatalog:     idCatalog,
		searchCatalog: searchCatalog,
		policy:        PolicyDrop,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "resolver")
	return r
}

// Policy returns the missing-stream policy in effect.
func (r *Resolver) Policy() MissingStreamPolicy {
	return r.policy
}

// ResolveStreams queries both catalogs concurrently and waits for both. It
// never fails: a missing canonical id yields the empty aggregate, and any
// catalog failure yields an empty sequence for that catalog only.
func (r *Resolver) ResolveStreams(ctx context.Context, req Request) AggregateResult {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.WithContext(ctx, r.logger)
	if !req.Canonical.HasID() {
		logger.Debug("canonical record has no id; returning empty result")
		return Empty()
	}
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = req.Canonical.MediaType
	}
	if mediaType == "" {
		mediaType = MediaMovie
	}
	canonical := req.Canonical
	canonical.MediaType = mediaType

	start := time.Now()
	var (
		wg    sync.WaitGroup
		fromA []EpisodeRecord
		fromB []EpisodeRecord
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fromA = r.runPipeline(logger, SourceA, func() Payload {
			if r.idCatalog == nil {
				return Payload{}
			}
			return r.idCatalog.FetchByID(services.WithSource(ctx, string(SourceA)), mediaType, canonical.ID)
		})
	}()
	go func() {
		defer wg.Done()
		fromB = r.runPipeline(logger, SourceB, func() Payload {
			if r.searchCatalog == nil {
				return Payload{}
			}
			return r.searchCatalog.Episodes(services.WithSource(ctx, string(SourceB)), canonical)
		})
	}()
	wg.Wait()

	result := Merge(fromA, fromB)
	logger.Debug("streams resolved",
		logging.String("canonical_id", canonical.ID),
		logging.String("media_type", string(mediaType)),
		logging.Int("phimapi_episodes", len(result.SourceA)),
		logging.Int("ophim_episodes", len(result.SourceB)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result
}

// runPipeline fetches and normalizes one source. A panic inside a catalog is
// contained to that source.
func (r *Resolver) runPipeline(logger *slog.Logger, tag SourceTag, fetch func() Payload) (episodes []EpisodeRecord) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logging.WarnWithContext(logger, "catalog pipeline panicked", "catalog_panic",
				logging.String("source", string(tag)),
				logging.String("panic", fmt.Sprint(recovered)),
				logging.String(logging.FieldImpact, "source contributes no episodes"),
			)
			episodes = []EpisodeRecord{}
		}
	}()
	return Normalize(fetch(), tag, r.policy)
}
