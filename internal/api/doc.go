// Package api is the application layer shared by the CLI and the HTTP server.
//
// StreamService turns a media type and TMDB id into a Resolution: it fetches
// the canonical record, runs the stream resolver, counts the outcome and
// records a history entry. A failed canonical lookup does not fail the
// request; resolution continues with an id-only record, so the id-keyed
// catalog still answers while the search-based one has nothing to search for.
//
// NewFromConfig is the single place catalog clients are built from
// configuration. The wire types in types.go keep the phimapi, ophim and all
// keys of the original stream contract and use snake_case throughout.
package api
