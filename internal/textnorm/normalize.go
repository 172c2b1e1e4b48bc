// Package textnorm normalizes free-text fields before they are compared for
// duplicates.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Clean trims s and collapses every whitespace run into a single space.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Email is Clean plus lowercase.
func Email(s string) string {
	return strings.ToLower(Clean(s))
}

// Digits drops everything that is not an ASCII digit.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripAccents removes combining marks: "Académica" -> "Academica".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Key is the comparison form used for duplicate detection.
func Key(s string) string {
	return StripAccents(strings.ToLower(Clean(s)))
}
