package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes free text for use as a grouping key: lowercase,
// trimmed, combining diacritical marks removed ("é" == "e"), internal
// whitespace runs collapsed to a single space. Never shown to users; display
// always uses the original string.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(stripper, s); err == nil {
		s = out
	}

	return strings.Join(strings.Fields(s), " ")
}
