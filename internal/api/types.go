package api

import (
	"time"

	"streamfinder/internal/history"
	"streamfinder/internal/streams"
)

// StreamsResponse is the body of a resolution. The phimapi, ophim and all
// arrays keep the keys existing players already read.
type StreamsResponse struct {
	RequestID      string                  `json:"request_id"`
	Canonical      streams.CanonicalRecord `json:"canonical"`
	CanonicalError string                  `json:"canonical_error,omitempty"`
	ElapsedMS      int64                   `json:"elapsed_ms"`
	streams.AggregateResult
}

// FromResolution converts a service resolution into its wire form.
func FromResolution(res Resolution) StreamsResponse {
	out := StreamsResponse{
		RequestID:       res.RequestID,
		Canonical:       res.Canonical,
		ElapsedMS:       res.Elapsed.Milliseconds(),
		AggregateResult: res.Result,
	}
	if res.CanonicalErr != nil {
		out.CanonicalError = res.CanonicalErr.Error()
	}
	return out
}

// Candidate is a search hit from the search-based catalog.
type Candidate struct {
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	OriginName       string   `json:"origin_name,omitempty"`
	AlternativeNames []string `json:"alternative_names,omitempty"`
	Year             int      `json:"year,omitempty"`
	TMDBID           string   `json:"tmdb_id,omitempty"`
}

// FromCandidates converts catalog candidates to their wire form.
func FromCandidates(candidates []streams.CatalogCandidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Candidate{
			Slug:             c.Slug,
			Name:             c.Name,
			OriginName:       c.OriginName,
			AlternativeNames: c.AlternativeNames,
			Year:             c.Year,
			TMDBID:           c.ExternalRefID,
		})
	}
	return out
}

// HistoryEntry is the transport form of a recorded resolution.
type HistoryEntry struct {
	ID           int64  `json:"id"`
	RequestID    string `json:"request_id"`
	MediaType    string `json:"media_type"`
	CanonicalID  string `json:"canonical_id"`
	Title        string `json:"title,omitempty"`
	ReleaseYear  int    `json:"release_year,omitempty"`
	PhimAPICount int    `json:"phimapi_count"`
	OphimCount   int    `json:"ophim_count"`
	Outcome      string `json:"outcome"`
	DurationMS   int64  `json:"duration_ms"`
	Origin       string `json:"origin"`
	CreatedAt    string `json:"created_at"`
}

// FromHistoryEntries converts stored entries to their wire form.
func FromHistoryEntries(entries []history.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:           e.ID,
			RequestID:    e.RequestID,
			MediaType:    string(e.MediaType),
			CanonicalID:  e.CanonicalID,
			Title:        e.Title,
			ReleaseYear:  e.ReleaseYear,
			PhimAPICount: e.PhimAPICount,
			OphimCount:   e.OphimCount,
			Outcome:      e.Outcome,
			DurationMS:   e.Duration.Milliseconds(),
			Origin:       string(e.Origin),
			CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

// HistoryResponse wraps a history listing.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// SearchResponse wraps catalog search hits.
type SearchResponse struct {
	Keyword    string      `json:"keyword"`
	Candidates []Candidate `json:"candidates"`
}

// HealthResponse reports liveness and configuration state.
type HealthResponse struct {
	Status         string `json:"status"`
	TMDBConfigured bool   `json:"tmdb_configured"`
	Policy         string `json:"missing_stream_policy"`
	HistoryEnabled bool   `json:"history_enabled"`
}
