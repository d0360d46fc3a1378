// Package identification decides whether an entry in a foreign stream catalog
// is the same work as a canonical record, and drives the keyword search used
// to find such an entry in catalogs that cannot be queried by id.
//
// Matches is the pure decision function: identifier match first, then a
// release-year gate, then symmetric substring containment over normalized
// names. ResolveCandidate layers a sequential keyword search on top of it,
// accumulating candidates across keywords and stopping as soon as one of them
// claims the canonical identifier.
//
// Keep matching heuristics here so both the HTTP API and the CLI apply the
// same rules.
package identification
