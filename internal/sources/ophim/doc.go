// Package ophim is the client for the search-based catalog.
//
// The catalog only exposes keyword search (/tim-kiem) and slug detail
// (/phim/{slug}). Episodes chains them through identification.ResolveCandidate
// so a detail fetch happens only for an entry judged to be the canonical work.
// Search hits carry the TMDB id as either a string or a number; both decode to
// the candidate's external reference.
package ophim
