package dictionary

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// markers are the reversible-Latin notation characters that carry no
// dictionary meaning.
var markers = runes.Predicate(func(r rune) bool {
	switch r {
	case '_', '^', '-', '+', '`':
		return true
	}
	return false
})

// Normalize reduces a reversible-Latin word to the form the word lists use:
// NFC, notation markers stripped, vowel-length letters folded into the
// vowel before them, lowercase. "a-A" becomes "a" and "n_g^e" becomes "nge".
func Normalize(w string) string {
	t := transform.Chain(norm.NFC, runes.Remove(markers))
	s, _, err := transform.String(t, w)
	if err != nil {
		s = w
	}
	s = foldLengthMarkers(s)
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Lower(language.Indonesian).String(s)
}

func foldLengthMarkers(s string) string {
	if !strings.ContainsAny(s, "AIUEOYW") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		if strings.ContainsRune("AIUEOYW", r) && strings.ContainsRune("aiueo", prev) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
