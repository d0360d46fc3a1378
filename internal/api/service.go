package api

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"streamfinder/internal/history"
	"streamfinder/internal/logging"
	"streamfinder/internal/metrics"
	"streamfinder/internal/services"
	"streamfinder/internal/streams"
)

// CanonicalLookup fetches the canonical record for an id.
type CanonicalLookup interface {
	Canonical(ctx context.Context, mediaType streams.MediaType, id string) (streams.CanonicalRecord, error)
}

// StreamResolver is the aggregation core.
type StreamResolver interface {
	ResolveStreams(ctx context.Context, req streams.Request) streams.AggregateResult
}

// CatalogSearcher runs a raw keyword search against the search-based catalog.
type CatalogSearcher interface {
	Search(ctx context.Context, keyword string) ([]streams.CatalogCandidate, error)
}

// HistoryStore persists resolution summaries.
type HistoryStore interface {
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// ResolveRequest describes one resolution. Title, OriginalTitle and Year
// override or stand in for the canonical lookup.
type ResolveRequest struct {
	MediaType     string
	ID            string
	Title         string
	OriginalTitle string
	Year          int
	Origin        history.Origin
}

// Resolution is the outcome of StreamService.Resolve.
type Resolution struct {
	RequestID string
	Canonical streams.CanonicalRecord
	Result    streams.AggregateResult
	Elapsed   time.Duration
	// CanonicalErr is set when the canonical lookup failed and resolution
	// continued with an id-only record.
	CanonicalErr error
}

// StreamService ties canonical lookup, stream resolution, metrics and history
// together for the CLI and the HTTP API.
type StreamService struct {
	canonical CanonicalLookup
	resolver  StreamResolver
	searcher  CatalogSearcher
	history   HistoryStore
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

// ServiceOption configures a StreamService.
type ServiceOption func(*StreamService)

// WithCanonicalLookup sets the metadata provider. Without one, requests rely on
// the caller-supplied titles.
func WithCanonicalLookup(lookup CanonicalLookup) ServiceOption {
	return func(s *StreamService) { s.canonical = lookup }
}

// WithSearcher enables Search.
func WithSearcher(searcher CatalogSearcher) ServiceOption {
	return func(s *StreamService) { s.searcher = searcher }
}

// WithHistory records every resolution.
func WithHistory(store HistoryStore) ServiceOption {
	return func(s *StreamService) { s.history = store }
}

// WithMetrics records resolution counters.
func WithMetrics(recorder *metrics.Recorder) ServiceOption {
	return func(s *StreamService) { s.metrics = recorder }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *StreamService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStreamService constructs a StreamService around resolver.
func NewStreamService(resolver StreamResolver, opts ...ServiceOption) *StreamService {
	svc := &StreamService{resolver: resolver, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(svc)
	}
	svc.logger = logging.NewComponentLogger(svc.logger, "stream-service")
	return svc
}

// HasCanonicalLookup reports whether a metadata provider is configured.
func (s *StreamService) HasCanonicalLookup() bool {
	return s != nil && s.canonical != nil
}

// HasHistory reports whether resolutions are recorded.
func (s *StreamService) HasHistory() bool {
	return s != nil && s.history != nil
}

// Resolve builds the canonical record and resolves streams for it. The only
// error is an invalid request; upstream failures degrade the result instead.
func (s *StreamService) Resolve(ctx context.Context, req ResolveRequest) (Resolution, error) {
	mediaType, ok := streams.ParseMediaType(req.MediaType)
	if !ok {
		return Resolution{}, services.Wrap(services.ErrValidation, "api", "resolve", "unsupported media type "+strings.TrimSpace(req.MediaType), nil)
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = services.WithRequestID(ctx, requestID)
	}
	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()

	canonical, canonicalErr := s.canonicalRecord(ctx, logger, mediaType, req)
	result := s.resolver.ResolveStreams(ctx, streams.Request{MediaType: mediaType, Canonical: canonical})
	elapsed := time.Since(start)

	s.metrics.ObserveResolution(result, canonical.HasID(), elapsed)
	if s.history != nil {
		entry := history.NewEntry(requestID, canonical, result, elapsed, req.Origin)
		if _, err := s.history.Record(ctx, entry); err != nil {
			logging.WarnWithContext(logger, "history record failed", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check state_dir permissions"),
				logging.String(logging.FieldImpact, "resolution not recorded in history"),
			)
		}
	}
	logger.Info("streams resolved",
		logging.String("media_type", string(mediaType)),
		logging.String("canonical_id", canonical.ID),
		logging.Int("phimapi_episodes", len(result.SourceA)),
		logging.Int("ophim_episodes", len(result.SourceB)),
		logging.Duration("elapsed", elapsed),
	)
	return Resolution{
		RequestID:    requestID,
		Canonical:    canonical,
		Result:       result,
		Elapsed:      elapsed,
		CanonicalErr: canonicalErr,
	}, nil
}

func (s *StreamService) canonicalRecord(ctx context.Context, logger *slog.Logger, mediaType streams.MediaType, req ResolveRequest) (streams.CanonicalRecord, error) {
	id := strings.TrimSpace(req.ID)
	record := streams.CanonicalRecord{ID: id, MediaType: mediaType}
	var lookupErr error
	if s.canonical != nil && id != "" {
		fetched, err := s.canonical.Canonical(ctx, mediaType, id)
		if err != nil {
			lookupErr = err
			s.metrics.ObserveCanonicalFailure(services.FailureKind(err))
			logging.WarnWithContext(logger, "canonical lookup failed", "canonical_lookup_failed",
				logging.String("canonical_id", id),
				logging.String("failure_kind", services.FailureKind(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check tmdb.api_key and TMDB availability"),
				logging.String(logging.FieldImpact, "search-based catalog has no titles to search"),
			)
		} else {
			record = fetched
			record.ID = id
			record.MediaType = mediaType
		}
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		record.Title = title
	}
	if original := strings.TrimSpace(req.OriginalTitle); original != "" {
		record.OriginalTitle = original
	}
	if req.Year > 0 {
		record.ReleaseYear = req.Year
	}
	return record, lookupErr
}

// ErrSearchUnavailable is returned by Search when no catalog searcher is set.
var ErrSearchUnavailable = errors.New("catalog search not configured")

// Search runs a raw keyword search against the search-based catalog.
func (s *StreamService) Search(ctx context.Context, keyword string) ([]streams.CatalogCandidate, error) {
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	return s.searcher.Search(ctx, keyword)
}

// History returns up to limit recorded resolutions, newest first.
func (s *StreamService) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx, limit)
}
