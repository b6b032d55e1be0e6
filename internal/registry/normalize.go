package registry

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a free-text identifier for comparison: hyphens,
// slashes, commas and whitespace are stripped and the rest lowercased.
// The result is a join key only, never persisted as identity. Empty input
// yields the empty string, which must not be used as a key.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r == '-' || r == '/' || r == ',':
			continue
		case unicode.IsSpace(r):
			continue
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
