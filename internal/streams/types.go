package streams

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MediaType identifies the kind of work a canonical record describes.
type MediaType string

const (
	MediaMovie  MediaType = "movie"
	MediaSeries MediaType = "series"
)

// ParseMediaType accepts the canonical names plus the "tv" alias used by the
// metadata provider and the id-keyed catalog.
func ParseMediaType(value string) (MediaType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "movies", "film":
		return MediaMovie, true
	case "series", "tv", "show":
		return MediaSeries, true
	default:
		return "", false
	}
}

// PathSegment returns the path component the upstream providers use for the
// media type ("movie" or "tv").
func (m MediaType) PathSegment() string {
	if m == MediaSeries {
		return "tv"
	}
	return "movie"
}

// SourceTag labels which catalog produced an episode.
type SourceTag string

const (
	// SourceA is the id-keyed catalog (PhimAPI).
	SourceA SourceTag = "phimapi"
	// SourceB is the search-based catalog (Ophim).
	SourceB SourceTag = "ophim"
)

// CanonicalRecord is the authoritative description of a work, as supplied by
// the metadata provider. Zero values mean "absent".
type CanonicalRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"original_title,omitempty"`
	ReleaseYear   int       `json:"release_year,omitempty"`
	MediaType     MediaType `json:"media_type"`
}

// HasID reports whether the record carries a usable identifier.
func (c CanonicalRecord) HasID() bool {
	return strings.TrimSpace(c.ID) != ""
}

// YearFromDate extracts the leading four-digit year of a date string such as
// "1978-10-05". It returns 0 when no year can be read.
func YearFromDate(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// CatalogCandidate is one search hit from a foreign catalog.
type CatalogCandidate struct {
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	OriginName       string   `json:"origin_name,omitempty"`
	AlternativeNames []string `json:"alternative_names,omitempty"`
	Year             int      `json:"year,omitempty"`
	ExternalRefID    string   `json:"external_ref_id,omitempty"`
}

// EpisodeRecord is a single playable entry in the unified list. The source tag
// is fixed at construction by the normalizer and cannot be reassigned.
type EpisodeRecord struct {
	ID         string
	Name       string
	ServerName string
	StreamURL  string
	EmbedURL   string
	source     SourceTag
}

// Source returns the catalog that produced the episode.
func (e EpisodeRecord) Source() SourceTag {
	return e.source
}

type episodeJSON struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ServerName string    `json:"server"`
	StreamURL  *string   `json:"link_m3u8"`
	EmbedURL   string    `json:"link_embed,omitempty"`
	Source     SourceTag `json:"source"`
}

// MarshalJSON emits the record in the shape clients of the original service
// expect; an absent stream URL is encoded as null.
func (e EpisodeRecord) MarshalJSON() ([]byte, error) {
	out := episodeJSON{
		ID:         e.ID,
		Name:       e.Name,
		ServerName: e.ServerName,
		EmbedURL:   e.EmbedURL,
		Source:     e.source,
	}
	if e.StreamURL != "" {
		stream := e.StreamURL
		out.StreamURL = &stream
	}
	return json.Marshal(out)
}

// AggregateResult is the merged outcome of one resolution. All is always
// SourceA followed by SourceB.
type AggregateResult struct {
	SourceA []EpisodeRecord `json:"phimapi"`
	SourceB []EpisodeRecord `json:"ophim"`
	All     []EpisodeRecord `json:"all"`
}

// Merge builds an AggregateResult from the two per-source sequences. Nil inputs
// become empty slices so the encoded form never carries null collections.
func Merge(a, b []EpisodeRecord) AggregateResult {
	if a == nil {
		a = []EpisodeRecord{}
	}
	if b == nil {
		b = []EpisodeRecord{}
	}
	all := make([]EpisodeRecord, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return AggregateResult{SourceA: a, SourceB: b, All: all}
}

// Empty returns the well-formed empty aggregate.
func Empty() AggregateResult {
	return Merge(nil, nil)
}

// Total returns the number of merged episodes.
func (r AggregateResult) Total() int {
	return len(r.All)
}
