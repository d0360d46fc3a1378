// Package history keeps a local SQLite log of resolutions for the history
// command: request id, canonical record, per-catalog episode counts, outcome
// and latency. Stream URLs are not stored, and nothing here feeds back into
// resolution.
//
// Schema changes ship as numbered files under migrations/ and are applied in
// order on Open.
package history
