package identification

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"streamfinder/internal/logging"
	"streamfinder/internal/services"
	"streamfinder/internal/streams"
)

// SearchFunc queries a catalog for a keyword.
type SearchFunc func(ctx context.Context, keyword string) ([]streams.CatalogCandidate, error)

// SearchOptions tunes ResolveCandidate.
type SearchOptions struct {
	// Timeout bounds each search call. Zero leaves the caller's context alone.
	Timeout time.Duration
	// MaxKeywords caps how many keywords are tried. Zero means all of them.
	MaxKeywords int
	Logger      *slog.Logger
}

// Keywords returns the ordered, case-insensitively de-duplicated search terms
// for a canonical record: original title first, localized title second.
func Keywords(canonical streams.CanonicalRecord) []string {
	keywords := make([]string, 0, 2)
	seen := make(map[string]struct{}, 2)
	for _, value := range []string{canonical.OriginalTitle, canonical.Title} {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keywords = append(keywords, value)
	}
	return keywords
}

// ResolveCandidate searches keyword by keyword, one call at a time, and picks
// the catalog entry that corresponds to canonical. A failed search counts as
// an empty result and never stops the loop. As soon as the accumulated pool
// holds an identifier match no further searches are issued.
//
// The chosen candidate is the identifier match if any, otherwise the first
// pool entry Matches accepts. ok is false when nothing corresponds.
func ResolveCandidate(ctx context.Context, canonical streams.CanonicalRecord, search SearchFunc, opts SearchOptions) (streams.CatalogCandidate, bool) {
	logger := logging.NewComponentLogger(opts.Logger, "identification")
	if search == nil {
		return streams.CatalogCandidate{}, false
	}
	keywords := Keywords(canonical)
	if opts.MaxKeywords > 0 && len(keywords) > opts.MaxKeywords {
		keywords = keywords[:opts.MaxKeywords]
	}

	var pool candidatePool
	for _, keyword := range keywords {
		found, err := searchOnce(ctx, search, keyword, opts.Timeout)
		if err != nil {
			logging.WarnWithContext(logger, "catalog search failed", "catalog_search_failed",
				logging.String("keyword", keyword),
				logging.String("failure_kind", services.FailureKind(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check catalog availability"),
				logging.String(logging.FieldImpact, "keyword skipped"),
			)
			continue
		}
		added := pool.add(found)
		logger.Debug("catalog search completed",
			logging.String("keyword", keyword),
			logging.Int("results", len(found)),
			logging.Int("new_candidates", added),
		)
		if _, ok := pool.idMatch(canonical); ok {
			break
		}
	}

	if candidate, ok := pool.idMatch(canonical); ok {
		logDecision(logger, canonical, candidate, "id")
		return candidate, true
	}
	for _, candidate := range pool.items {
		if Matches(canonical, candidate) {
			logDecision(logger, canonical, candidate, "name")
			return candidate, true
		}
	}
	logger.Debug("no catalog candidate matched",
		logging.String("canonical_id", canonical.ID),
		logging.Int("pool_size", len(pool.items)),
	)
	return streams.CatalogCandidate{}, false
}

func searchOnce(ctx context.Context, search SearchFunc, keyword string, timeout time.Duration) ([]streams.CatalogCandidate, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return search(callCtx, keyword)
}

func logDecision(logger *slog.Logger, canonical streams.CanonicalRecord, candidate streams.CatalogCandidate, rule string) {
	attrs := logging.DecisionAttrs("candidate_match", "selected", rule)
	attrs = append(attrs,
		logging.String("canonical_id", canonical.ID),
		logging.String("slug", candidate.Slug),
		logging.String("name", candidate.Name),
	)
	logger.Debug("catalog candidate selected", logging.Args(attrs...)...)
}

// candidatePool accumulates search hits across keywords, keeping the first
// occurrence of each slug. A later duplicate that carries an external ref id
// lends it to the stored entry, so an identifier surfaced by the second
// keyword is not lost to de-duplication.
type candidatePool struct {
	items []streams.CatalogCandidate
	index map[string]int
}

// add merges found into the pool and reports how many slugs were new.
func (p *candidatePool) add(found []streams.CatalogCandidate) int {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	added := 0
	for _, candidate := range found {
		slug := strings.TrimSpace(candidate.Slug)
		if slug == "" {
			continue
		}
		if at, ok := p.index[slug]; ok {
			stored := &p.items[at]
			if strings.TrimSpace(stored.ExternalRefID) == "" && strings.TrimSpace(candidate.ExternalRefID) != "" {
				stored.ExternalRefID = candidate.ExternalRefID
			}
			continue
		}
		p.index[slug] = len(p.items)
		p.items = append(p.items, candidate)
		added++
	}
	return added
}

func (p *candidatePool) idMatch(canonical streams.CanonicalRecord) (streams.CatalogCandidate, bool) {
	for _, candidate := range p.items {
		if IDMatch(canonical, candidate) {
			return candidate, true
		}
	}
	return streams.CatalogCandidate{}, false
}
