package feehead

import (
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// fuzzyThreshold is the minimum similarity for an edit-distance fallback
// match. "Tution Fee" vs "Tuition Fee" clears it, "Library Fee" vs
// "Tuition Fee" does not.
const fuzzyThreshold = 0.8

// NormalizeName reduces a header or catalog name to uppercase alphanumerics.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// MatchHead maps free header text to a catalog head. Exact and substring
// matches on the normalized forms win first; otherwise the best levenshtein
// similarity above the threshold wins. Catalog order is the tie-break, so
// callers must pass heads in fetch order (the repository lists by id).
func MatchHead(header string, catalog []FeeHead) *FeeHead {
	normHeader := NormalizeName(header)
	if normHeader == "" {
		return nil
	}

	for i := range catalog {
		name := NormalizeName(catalog[i].Name)
		if name == "" {
			continue
		}
		if normHeader == name || strings.Contains(normHeader, name) {
			return &catalog[i]
		}
	}

	var best *FeeHead
	bestScore := 0.0
	for i := range catalog {
		score := Similarity(normHeader, NormalizeName(catalog[i].Name))
		if score > bestScore {
			bestScore = score
			best = &catalog[i]
		}
	}
	if best != nil && bestScore > fuzzyThreshold {
		return best
	}
	return nil
}

// Similarity is 1 - dist(longer, shorter)/len(longer) over rune counts.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	longer, shorter := ra, rb
	if len(rb) > len(ra) {
		longer, shorter = rb, ra
	}
	dist := levenshtein.DistanceForStrings(longer, shorter, levenshtein.DefaultOptions)
	return 1 - float64(dist)/float64(len(longer))
}
