// Package phimapi is the client for the id-keyed catalog. A single GET of
// /{movie|tv}/{tmdb id} returns every server group for the work, or a
// status:false body when the catalog has no mapping for that id.
package phimapi
