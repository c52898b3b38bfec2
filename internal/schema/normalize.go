package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent strips nonspacing marks: decompose, remove Mn, recompose. Case
// exports carry accented Spanish headers ("AÑO", "OPERACIÓN") that must fold
// to plain ASCII identifiers.
var deaccent = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeHeader converts arbitrary header text into a lowercase identifier
// suitable for matching against canonical column names:
//
//  1. trim surrounding whitespace and lowercase
//  2. strip accents (NFD → remove Mn → NFC)
//  3. collapse whitespace runs to a single underscore; then each hyphen
//     becomes its own underscore
//  4. drop any remaining character outside [a-z0-9_]
//
// The function is pure and deterministic. An empty result means "no column
// name" and never matches a canonical column.
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	ascii, _, err := transform.String(deaccent, s)
	if err != nil {
		ascii = s
	}

	var b strings.Builder
	b.Grow(len(ascii))
	inSpace := false
	for _, r := range ascii {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
		case r == '-':
			// Hyphens map one-to-one and do not join a whitespace run.
			b.WriteByte('_')
			inSpace = false
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			inSpace = false
		default:
			// drop anything else
		}
	}
	return b.String()
}
