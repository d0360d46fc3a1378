// Package tmdb provides the minimal TMDB API client used to build canonical
// records.
//
// Canonical fetches movie or TV details by id and reduces them to the
// localized title, original title, release year and media type the stream
// catalogs are matched against. SearchMulti backs the CLI lookup helper.
// Requests go through httpx so TMDB calls share the per-call timeout and pacing
// of the catalog clients.
package tmdb
