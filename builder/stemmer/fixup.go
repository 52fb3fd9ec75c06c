package stemmer

import (
	"strings"
)

// unfuse turns the nasal token at the allomorph index back into the
// surface form of the base. Depending on the first letter of the base the
// nasal replaces it, is prepended to it, or joins the previous prefix.
// The token itself is always dropped.
func (s *state) unfuse() {
	i := s.allomorphIndex
	if i >= len(s.removed) {
		return
	}
	token := s.removed[i]
	nasal, ok := strings.CutSuffix(token, "-")
	if !ok {
		return
	}
	switch nasal {
	case "n_g":
		switch {
		case strings.ContainsAny(firstByte(s.word), "glwry"):
			s.merge(nasal, token)
		case firstByte(s.word) == "k":
			s.replaceFirst(nasal)
		case startsWithVowel(s.word):
			s.word = nasal + s.word
		}
	case "n_y":
		if startsWithVowel(s.word) {
			s.word = nasal + s.word
		} else {
			s.replaceFirst(nasal)
		}
	case "n":
		switch {
		case strings.ContainsAny(firstByte(s.word), "ts"):
			s.replaceFirst(nasal)
		case strings.ContainsAny(firstByte(s.word), "dj"):
			s.merge(nasal, token)
		case startsWithVowel(s.word):
			s.word = nasal + s.word
		}
	case "m":
		switch {
		case strings.ContainsAny(firstByte(s.word), "pw"):
			s.replaceFirst(nasal)
		case firstByte(s.word) == "b":
			s.merge(nasal, token)
		case startsWithVowel(s.word):
			s.word = nasal + s.word
		}
	case `n_g^e`:
		s.word = nasal + s.word
	default:
		return
	}
	s.removed = append(s.removed[:i:i], s.removed[i+1:]...)
}

// merge attaches the nasal to the previous prefix, "pa-" becoming
// "pan_g-", or prepends it to the base when there is none.
func (s *state) merge(nasal, token string) {
	i := s.allomorphIndex
	if i > 0 {
		s.removed[i-1] = strings.TrimSuffix(s.removed[i-1], "-") + token
		return
	}
	s.word = nasal + s.word
}

// replaceFirst swaps the first letter of the base, with its digraph
// marker, for the nasal.
func (s *state) replaceFirst(nasal string) {
	n := 1
	if len(s.word) > 2 && s.word[1] == '_' {
		n = 3
	}
	if n > len(s.word) {
		n = len(s.word)
	}
	s.word = nasal + s.word[n:]
}

// recodeAffixes moves the k or r closing a prefix such as "tak-" onto a
// vowel-initial base.
func (s *state) recodeAffixes() {
	i := s.allomorphIndex - 1
	if i < 0 || i >= len(s.removed) {
		return
	}
	prefix, ok := strings.CutSuffix(s.removed[i], "-")
	if !ok || len(prefix) != 3 || !startsWithVowel(s.word) {
		return
	}
	switch prefix[:2] {
	case "ta", "da", "ko", "to":
	default:
		return
	}
	last := prefix[2:]
	if last != "k" && last != "r" {
		return
	}
	s.word = last + s.word
	s.removed[i] = prefix[:2] + "-"
}

func firstByte(w string) string {
	if w == "" {
		return ""
	}
	return w[:1]
}

func startsWithVowel(w string) bool {
	return strings.HasPrefix(w, `^e`) || (w != "" && strings.ContainsAny(w[:1], "aiueo"))
}
