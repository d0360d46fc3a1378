package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. A missing TMDB key is not an
// error here: commands that need canonical lookups check it themselves.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateStreams(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireTMDB reports an actionable error when no TMDB key is configured.
func (c *Config) RequireTMDB() error {
	if c.TMDB.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/streamfinder/config.toml"
	}
	return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'streamfinder config init')", defaultPath)
}

func (c *Config) validateTMDB() error {
	if err := validateBaseURL("tmdb.base_url", c.TMDB.BaseURL); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSources() error {
	if err := validateBaseURL("sources.phimapi_base_url", c.Sources.PhimAPIBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("sources.ophim_base_url", c.Sources.OphimBaseURL); err != nil {
		return err
	}
	if c.Sources.TimeoutSeconds <= 0 {
		return errors.New("sources.timeout_seconds must be positive")
	}
	if c.Sources.RequestsPerSecond < 0 {
		return errors.New("sources.requests_per_second must not be negative")
	}
	return nil
}

func (c *Config) validateStreams() error {
	switch c.Streams.MissingStreamPolicy {
	case "drop", "retain":
		return nil
	default:
		return fmt.Errorf("streams.missing_stream_policy must be drop or retain, got %q", c.Streams.MissingStreamPolicy)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

func validateBaseURL(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s must be set", field)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}
