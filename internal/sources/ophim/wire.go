package ophim

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"streamfinder/internal/streams"
)

type searchResponse struct {
	Data struct {
		Items []searchItem `json:"items"`
	} `json:"data"`
}

type searchItem struct {
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	OriginName       string   `json:"origin_name"`
	AlternativeNames []string `json:"alternative_names"`
	Year             flexInt  `json:"year"`
	TMDB             *tmdbRef `json:"tmdb"`
}

type tmdbRef struct {
	Type string     `json:"type"`
	ID   flexString `json:"id"`
}

// sameKind reports whether the ref can name a work of mediaType. TMDB numbers
// movies and shows independently, so movie 101 and tv 101 are unrelated. An
// absent or unknown type, or no expectation, is accepted.
func (r tmdbRef) sameKind(mediaType streams.MediaType) bool {
	if mediaType == "" {
		return true
	}
	kind, ok := streams.ParseMediaType(r.Type)
	return !ok || kind == mediaType
}

// candidate converts the item. The tmdb id is only carried over when its type
// agrees with mediaType; a foreign-kind id is dropped so the name rules decide.
func (i searchItem) candidate(mediaType streams.MediaType) streams.CatalogCandidate {
	c := streams.CatalogCandidate{
		Slug:             strings.TrimSpace(i.Slug),
		Name:             strings.TrimSpace(i.Name),
		OriginName:       strings.TrimSpace(i.OriginName),
		AlternativeNames: i.AlternativeNames,
		Year:             int(i.Year),
	}
	if i.TMDB != nil && i.TMDB.sameKind(mediaType) {
		c.ExternalRefID = strings.TrimSpace(string(i.TMDB.ID))
	}
	return c
}

type detailResponse struct {
	Data struct {
		Item *detailItem `json:"item"`
	} `json:"data"`
}

type detailItem struct {
	Slug     string                `json:"slug"`
	Name     string                `json:"name"`
	Episodes []streams.ServerGroup `json:"episodes"`
}

// flexString accepts a JSON string or number. The catalog emits tmdb ids in
// both forms; any other JSON value decodes to empty.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*f = ""
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or numeric string. Unreadable values decode
// to zero, meaning absent.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		*f = 0
		return nil
	}
	value := strings.TrimSpace(string(s))
	if value == "" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		*f = flexInt(n)
		return nil
	}
	*f = flexInt(streams.YearFromDate(value))
	return nil
}
