package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// TMDB contains configuration for The Movie Database API, the canonical
// metadata provider.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Sources contains endpoints and network limits for the two stream catalogs.
type Sources struct {
	PhimAPIBaseURL    string  `toml:"phimapi_base_url"`
	OphimBaseURL      string  `toml:"ophim_base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	UserAgent         string  `toml:"user_agent"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Streams contains resolution behaviour settings.
type Streams struct {
	// MissingStreamPolicy is "drop" (default) or "retain" for episodes that
	// carry no stream URL.
	MissingStreamPolicy string `toml:"missing_stream_policy"`
	// MaxKeywords caps the number of search keywords tried against the
	// search-based catalog. Zero means no cap.
	MaxKeywords int `toml:"max_keywords"`
	// OverridesFile pins TMDB ids to search-catalog slugs. Defaults to
	// <state_dir>/overrides.json; a missing file means no overrides.
	OverridesFile string `toml:"overrides_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// RetentionDays prunes serve-mode event logs older than this many days.
	// Zero keeps them forever.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for streamfinder.
//
// Configuration sections by subsystem:
//   - Paths: state directory (history database) and API bind address
//   - TMDB: canonical record lookup
//   - Sources: catalog endpoints, per-call timeout, pacing
//   - Streams: missing-stream policy and keyword limits
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	TMDB    TMDB    `toml:"tmdb"`
	Sources Sources `toml:"sources"`
	Streams Streams `toml:"streams"`
	Logging Logging `toml:"logging"`
}

// SourceSettings is the single injected view of endpoints, key and timeout the
// catalog clients are built from.
type SourceSettings struct {
	PhimAPIBaseURL    string
	OphimBaseURL      string
	TMDBBaseURL       string
	TMDBAPIKey        string
	TMDBLanguage      string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
}

// SourceSettings returns the catalog client settings.
func (c *Config) SourceSettings() SourceSettings {
	timeout := time.Duration(c.Sources.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(defaultSourceTimeoutSeconds) * time.Second
	}
	return SourceSettings{
		PhimAPIBaseURL:    strings.TrimRight(strings.TrimSpace(c.Sources.PhimAPIBaseURL), "/"),
		OphimBaseURL:      strings.TrimRight(strings.TrimSpace(c.Sources.OphimBaseURL), "/"),
		TMDBBaseURL:       strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/"),
		TMDBAPIKey:        strings.TrimSpace(c.TMDB.APIKey),
		TMDBLanguage:      strings.TrimSpace(c.TMDB.Language),
		Timeout:           timeout,
		UserAgent:         strings.TrimSpace(c.Sources.UserAgent),
		RequestsPerSecond: c.Sources.RequestsPerSecond,
	}
}

// HistoryPath returns the location of the resolution history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LogDir returns the directory serve mode writes its JSON event logs to.
func (c *Config) LogDir() string {
	return filepath.Join(c.Paths.StateDir, "logs")
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/streamfinder/config.toml")
}

// Load reads the configuration at path, or at the first existing candidate
// location when path is empty, then applies defaults, environment fallbacks
// and validation. It returns the path used and whether a file existed there;
// a missing file yields the defaults. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locateConfig(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, resolved, true, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, resolved, exists, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolved, exists, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	err = decoder.Decode(cfg)
	if err == nil {
		return nil
	}
	var strict *toml.StrictMissingError
	if errors.As(err, &strict) {
		return fmt.Errorf("config %s has unknown keys:\n%s", path, strict.String())
	}
	var syntax *toml.DecodeError
	if errors.As(err, &syntax) {
		row, col := syntax.Position()
		return fmt.Errorf("config %s:%d:%d: %w", path, row, col, err)
	}
	return fmt.Errorf("parse config %s: %w", path, err)
}

// configCandidates lists where Load looks when no path is given, in order.
func configCandidates() ([]string, error) {
	user, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	local, err := filepath.Abs("streamfinder.toml")
	if err != nil {
		return nil, err
	}
	return []string{user, local}, nil
}

func locateConfig(path string) (string, bool, error) {
	var candidates []string
	if path = strings.TrimSpace(path); path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		candidates = []string{expanded}
	} else {
		var err error
		if candidates, err = configCandidates(); err != nil {
			return "", false, err
		}
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		switch {
		case err == nil && info.IsDir():
			return "", false, fmt.Errorf("config %s is a directory", candidate)
		case err == nil:
			return candidate, true, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return candidates[0], false, nil
}

// EnsureDirectories creates the state directory.
func (c *Config) EnsureDirectories() error {
	if c.Paths.StateDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading "~" to the home directory and makes value
// absolute. Empty stays empty.
func ExpandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", value, err)
		}
		value = filepath.Join(home, value[1:])
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", value, err)
	}
	return absolute, nil
}

// CreateSample writes the sample configuration to path, creating parent
// directories. Unless overwrite is set an existing file is left in place and
// the returned error matches fs.ErrExist.
func CreateSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		_ = file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}
