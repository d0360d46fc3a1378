// Package services defines shared utilities consumed by the catalog clients and
// the outer CLI/API layers.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and catalog names for
//     logging.
//   - Structured error markers plus the Wrap helper, and FailureKind which turns
//     any error into the short label used in logs and metrics.
//
// Errors built here never leave the catalog clients: they are logged and then
// collapsed into empty results at the client boundary.
package services
