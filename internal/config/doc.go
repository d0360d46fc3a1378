// Package config loads, normalizes, and validates streamfinder configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY. Catalog clients receive their endpoints, key and timeout
// through SourceSettings rather than reading globals.
package config
