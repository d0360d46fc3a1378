package identification

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a title to its comparison form: lowercase, diacritics
// removed, and everything outside [a-z0-9] dropped. "Túy Quyền" and
// "tuy-quyen" both become "tuyquyen".
func NormalizeName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, value)
	if err != nil {
		folded = value
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'đ':
			// Vietnamese d-bar has no combining decomposition.
			b.WriteByte('d')
		}
	}
	return b.String()
}

// normalizedNames maps values through NormalizeName, keeping only non-empty
// results.
func normalizedNames(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if normalized := NormalizeName(value); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}
