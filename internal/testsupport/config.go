package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"streamfinder/internal/config"
)

// ConfigOption adjusts a test config before its state dir is created.
type ConfigOption func(*config.Config)

// NewConfig returns a normalized-looking config rooted in a fresh temp dir:
// a dummy TMDB key, an ephemeral API port and a short per-call timeout.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.TMDB.APIKey = "test"
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Sources.TimeoutSeconds = 2
	cfg.Streams.OverridesFile = filepath.Join(cfg.Paths.StateDir, "overrides.json")
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := os.MkdirAll(cfg.Paths.StateDir, 0o755); err != nil {
		t.Fatalf("create state dir: %v", err)
	}
	return &cfg
}

// WithTMDBKey replaces the dummy key; an empty key disables canonical lookup.
func WithTMDBKey(key string) ConfigOption {
	return func(cfg *config.Config) { cfg.TMDB.APIKey = key }
}

// WithAPIToken requires a bearer token on the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) { cfg.Paths.APIToken = token }
}

// WithCatalogs points TMDB and both catalogs at the fake server.
func WithCatalogs(c *Catalogs) ConfigOption {
	return func(cfg *config.Config) {
		cfg.TMDB.BaseURL = c.TMDBURL()
		cfg.Sources.PhimAPIBaseURL = c.PhimAPIURL()
		cfg.Sources.OphimBaseURL = c.OphimURL()
	}
}

// WithMissingStreamPolicy sets streams.missing_stream_policy.
func WithMissingStreamPolicy(policy string) ConfigOption {
	return func(cfg *config.Config) { cfg.Streams.MissingStreamPolicy = policy }
}

// BaseDir is the temp dir holding the state dir and any written config file.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WriteConfigFile stores cfg as TOML next to its state dir and returns the
// path, for tests that go through config.Load.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
