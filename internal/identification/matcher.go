package identification

import (
	"strings"

	"streamfinder/internal/streams"
)

// maxYearDrift is the largest release-year difference still treated as the
// same work. Catalogs often list the local premiere year.
const maxYearDrift = 1

// Matches reports whether candidate describes the same work as canonical.
//
// Rules, first applicable wins:
//  1. candidate.ExternalRefID equal to canonical.ID matches outright.
//  2. When both years are known and drift by more than one, reject.
//  3. Any normalized canonical name containing, or contained in, any
//     normalized candidate name matches.
//
// Matches is pure and safe for concurrent use.
func Matches(canonical streams.CanonicalRecord, candidate streams.CatalogCandidate) bool {
	if IDMatch(canonical, candidate) {
		return true
	}
	if !yearCompatible(canonical.ReleaseYear, candidate.Year) {
		return false
	}
	return namesOverlap(canonicalNames(canonical), candidateNames(candidate))
}

// IDMatch reports whether the candidate claims the canonical identifier.
// Identifiers are compared as trimmed strings; an empty side never matches.
func IDMatch(canonical streams.CanonicalRecord, candidate streams.CatalogCandidate) bool {
	ref := strings.TrimSpace(candidate.ExternalRefID)
	id := strings.TrimSpace(canonical.ID)
	return ref != "" && id != "" && ref == id
}

func yearCompatible(canonicalYear, candidateYear int) bool {
	if canonicalYear <= 0 || candidateYear <= 0 {
		return true
	}
	diff := canonicalYear - candidateYear
	if diff < 0 {
		diff = -diff
	}
	return diff <= maxYearDrift
}

func canonicalNames(canonical streams.CanonicalRecord) []string {
	return normalizedNames(canonical.Title, canonical.OriginalTitle)
}

func candidateNames(candidate streams.CatalogCandidate) []string {
	values := make([]string, 0, 2+len(candidate.AlternativeNames))
	values = append(values, candidate.Name, candidate.OriginName)
	values = append(values, candidate.AlternativeNames...)
	return normalizedNames(values...)
}

func namesOverlap(left, right []string) bool {
	for _, a := range left {
		for _, b := range right {
			if strings.Contains(a, b) || strings.Contains(b, a) {
				return true
			}
		}
	}
	return false
}
