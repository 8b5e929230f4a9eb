// Package scoring implements the multi-stage lead relevance and scoring
// engine, parameterized by a market profile.
package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer lowercases comparisons indirectly: we fold diacritics here
// and lowercase in Fold, so "Präzision" matches "prazision".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases text and strips diacritics for keyword matching.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		// Fall back to plain lowercasing on malformed input.
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// containsFolded reports whether folded text contains the folded keyword.
// Text must already be folded; the keyword is folded here.
func containsFolded(foldedText, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(foldedText, Fold(keyword))
}

// hasNonLatinPayload reports whether the text carries letters outside the
// Latin script (structural denylist pattern for hard exclusion).
func hasNonLatinPayload(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// isHashLikeLocal reports whether a local-part looks machine-generated:
// a long run of hex-only characters.
func isHashLikeLocal(local string) bool {
	if len(local) < 16 {
		return false
	}
	for i := 0; i < len(local); i++ {
		c := local[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
