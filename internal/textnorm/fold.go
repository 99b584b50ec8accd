package textnorm

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lower lower-cases s with Spanish casing rules.
func Lower(s string) string {
	// A Caser is stateful and not safe for concurrent use.
	return cases.Lower(language.Spanish).String(s)
}

// StripAccents removes diacritics, so "ñ" becomes "n" and "é" becomes "e".
func StripAccents(s string) string {
	// transform.Chain keeps state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lower-cases s and strips its diacritics.
func Fold(s string) string {
	return StripAccents(Lower(s))
}
