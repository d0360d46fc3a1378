package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeSources()
	if err := c.normalizeStreams(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("STREAMFINDER_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
}

func (c *Config) normalizeSources() {
	c.Sources.PhimAPIBaseURL = strings.TrimSpace(c.Sources.PhimAPIBaseURL)
	if c.Sources.PhimAPIBaseURL == "" {
		c.Sources.PhimAPIBaseURL = defaultPhimAPIBaseURL
	}
	c.Sources.OphimBaseURL = strings.TrimSpace(c.Sources.OphimBaseURL)
	if c.Sources.OphimBaseURL == "" {
		c.Sources.OphimBaseURL = defaultOphimBaseURL
	}
	if c.Sources.TimeoutSeconds == 0 {
		c.Sources.TimeoutSeconds = defaultSourceTimeoutSeconds
	}
	c.Sources.UserAgent = strings.TrimSpace(c.Sources.UserAgent)
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeStreams() error {
	c.Streams.MissingStreamPolicy = strings.ToLower(strings.TrimSpace(c.Streams.MissingStreamPolicy))
	if c.Streams.MissingStreamPolicy == "" {
		c.Streams.MissingStreamPolicy = defaultMissingStreamPolicy
	}
	if c.Streams.MaxKeywords < 0 {
		c.Streams.MaxKeywords = 0
	}
	c.Streams.OverridesFile = strings.TrimSpace(c.Streams.OverridesFile)
	if c.Streams.OverridesFile == "" {
		c.Streams.OverridesFile = filepath.Join(c.Paths.StateDir, "overrides.json")
		return nil
	}
	var err error
	if c.Streams.OverridesFile, err = ExpandPath(c.Streams.OverridesFile); err != nil {
		return fmt.Errorf("streams.overrides_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
