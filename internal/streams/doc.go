// Package streams defines the unified episode model and the resolver that
// merges playable streams from the id-keyed and search-based catalogs.
//
// The Resolver runs both catalog pipelines concurrently, normalizes each
// provider payload into EpisodeRecords tagged with their source, and returns an
// AggregateResult whose All field is always the id-keyed episodes followed by
// the search-based ones. Catalog failures never cross this boundary: they show
// up as an empty sequence for the failing source while the other source is
// returned intact.
//
// Nothing here caches or persists; every resolution starts from scratch.
package streams
