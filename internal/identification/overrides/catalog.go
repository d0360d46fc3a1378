// Package overrides loads user-pinned slugs for the search-based catalog.
//
// An override maps a TMDB id to the catalog slug that carries it, for titles
// whose catalog entry cannot be found by name (transliterated or renamed
// entries). The file is JSON, either an array or {"overrides": [...]}:
//
//	[{"media_type": "movie", "tmdb_id": 101, "slug": "tuy-quyen"}]
//
// The file is re-read whenever its modification time changes; a missing file
// means no overrides.
package overrides

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"streamfinder/internal/logging"
	"streamfinder/internal/streams"
)

// Override pins one canonical id to a catalog slug.
type Override struct {
	MediaType streams.MediaType `json:"media_type"`
	TMDBID    string            `json:"tmdb_id"`
	Slug      string            `json:"slug"`
	Note      string            `json:"note,omitempty"`
}

type rawOverride struct {
	MediaType string          `json:"media_type"`
	TMDBID    json.RawMessage `json:"tmdb_id"`
	Slug      string          `json:"slug"`
	Note      string          `json:"note"`
}

// Catalog is a hot-reloading override file.
type Catalog struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	loaded  time.Time
	entries map[string]Override
}

// NewCatalog returns nil for an empty path so callers can treat overrides as
// optional.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return &Catalog{path: trimmed, logger: logging.NewComponentLogger(logger, "overrides")}
}

// Path returns the backing file.
func (c *Catalog) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Lookup returns the override for mediaType and id.
func (c *Catalog) Lookup(mediaType streams.MediaType, id string) (Override, bool, error) {
	if c == nil {
		return Override{}, false, nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Override{}, false, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return Override{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key(mediaType, id)]
	return entry, ok, nil
}

func (c *Catalog) ensureLoaded() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.mu.Lock()
			c.entries = nil
			c.loaded = time.Time{}
			c.mu.Unlock()
			return nil
		}
		return fmt.Errorf("stat overrides: %w", err)
	}

	c.mu.RLock()
	current := !c.loaded.IsZero() && c.loaded.Equal(info.ModTime())
	c.mu.RUnlock()
	if current {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read overrides: %w", err)
	}
	entries, err := parse(data)
	if err != nil {
		return fmt.Errorf("parse overrides %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.entries = entries
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Info("loaded slug overrides", logging.String("path", c.path), logging.Int("count", len(entries)))
	return nil
}

func parse(data []byte) (map[string]Override, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF")))
	if len(data) == 0 {
		return map[string]Override{}, nil
	}
	var raw []rawOverride
	if data[0] == '{' {
		var wrapper struct {
			Overrides []rawOverride `json:"overrides"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, err
		}
		raw = wrapper.Overrides
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	entries := make(map[string]Override, len(raw))
	for i, r := range raw {
		mediaType, ok := streams.ParseMediaType(r.MediaType)
		if !ok {
			return nil, fmt.Errorf("entry %d: unsupported media_type %q", i, r.MediaType)
		}
		id := decodeID(r.TMDBID)
		slug := strings.TrimSpace(r.Slug)
		if id == "" || slug == "" {
			return nil, fmt.Errorf("entry %d: tmdb_id and slug are required", i)
		}
		entries[key(mediaType, id)] = Override{
			MediaType: mediaType,
			TMDBID:    id,
			Slug:      slug,
			Note:      strings.TrimSpace(r.Note),
		}
	}
	return entries, nil
}

// decodeID accepts a JSON number or string.
func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil && v > 0 {
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

func key(mediaType streams.MediaType, id string) string {
	return string(mediaType) + "/" + strings.TrimSpace(id)
}
