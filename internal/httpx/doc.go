// Package httpx is the shared HTTP layer for the metadata provider and the
// stream catalogs.
//
// Every call gets its own deadline, is paced by an optional token bucket, and
// is never retried. Responses may arrive brotli- or gzip-compressed. Failures
// come back tagged with the services error markers so callers can log a
// consistent failure kind before collapsing them to empty results.
package httpx
