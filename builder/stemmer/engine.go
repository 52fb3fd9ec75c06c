package stemmer

import (
	"github.com/Kush-Singh-26/aksara/builder/dictionary"
	"github.com/Kush-Singh-26/aksara/builder/models"
)

// maxPasses bounds every strip loop.
const maxPasses = 3

// Strategy is one fixed order of stripping passes. Every strategy starts
// from the original word.
type Strategy int

const (
	// SuffixFirst strips suffixes only.
	SuffixFirst Strategy = iota
	// SuffixThenPrefix strips suffixes, resets when two syllables or fewer
	// remain, then strips prefixes.
	SuffixThenPrefix
	// PrefixThenSuffix strips prefixes, then suffixes from the remainder.
	PrefixThenSuffix
)

// Strategies lists every strategy in the order Stem tries them.
var Strategies = []Strategy{SuffixFirst, SuffixThenPrefix, PrefixThenSuffix}

func (s Strategy) String() string {
	switch s {
	case SuffixFirst:
		return "suffix-first"
	case SuffixThenPrefix:
		return "suffix-then-prefix"
	case PrefixThenSuffix:
		return "prefix-then-suffix"
	}
	return "unknown"
}

// state is the transient context of one stemming attempt.
type state struct {
	rs   *RuleSet
	dict *dictionary.Dictionary

	original       string
	word           string
	removed        []string
	allomorphIndex int
	infix          string
	found          bool

	probes int64
}

func newState(rs *RuleSet, dict *dictionary.Dictionary, word string) *state {
	return &state{rs: rs, dict: dict, original: word, word: word}
}

func (s *state) reset() {
	s.word = s.original
	s.removed = nil
	s.allomorphIndex = 0
	s.infix = ""
	s.found = false
}

func (s *state) isRoot(w string) bool {
	s.probes++
	return s.dict.IsRootWord(dictionary.Normalize(w))
}

func (s *state) run(st Strategy) {
	s.reset()
	switch st {
	case SuffixFirst:
		s.removeSuffixes()
	case SuffixThenPrefix:
		s.removeSuffixes()
		if s.found {
			return
		}
		if s.rs.CountSyllables(s.word) <= 2 {
			s.reset()
		}
		s.removePrefixes()
	case PrefixThenSuffix:
		s.removePrefixes()
		if s.found {
			return
		}
		s.removeSuffixes()
	}
}

// removeSuffixes records suffixes inner to outer after whatever is
// already in removed.
func (s *state) removeSuffixes() {
	var temp []string
	for i := 0; i < maxPasses; i++ {
		s.checkAllomorph()
		if s.found {
			break
		}
		rest, token, ok := first(s.rs.suffixes, s.word)
		if !ok || contains(temp, token) {
			continue
		}
		s.word = rest
		temp = append([]string{token}, temp...)
		if s.isRoot(rest) {
			s.found = true
			break
		}
	}
	s.removed = append(append([]string(nil), s.removed...), temp...)
}

// removePrefixes records prefixes outer to inner before whatever is
// already in removed. The allomorph index only moves on success.
func (s *state) removePrefixes() {
	var temp []string
	index := s.allomorphIndex
	for i := 0; i < maxPasses; i++ {
		s.checkAllomorph()
		if s.found {
			break
		}
		rest, token, ok := first(s.rs.prefixes, s.word)
		if !ok || contains(temp, token) {
			continue
		}
		s.word = rest
		temp = append(temp, token)
		index++
		if s.isRoot(rest) {
			s.found = true
			break
		}
	}
	s.removed = append(temp, s.removed...)
	if s.found {
		s.allomorphIndex = index
	}
}

func (s *state) checkAllomorph() {
	if s.found {
		return
	}
	if s.rs.keepSurface {
		s.checkInfixAndAllomorph()
		return
	}
	for _, group := range s.rs.allomorphs {
		if s.isRoot(s.word) {
			return
		}
		for _, r := range group {
			rest, token, ok := r.apply(s.word)
			if !ok {
				continue
			}
			if s.isRoot(rest) {
				s.word = rest
				s.removed = insertAt(s.removed, s.allomorphIndex, token)
				s.found = true
				return
			}
		}
	}
}

// checkInfixAndAllomorph tests the word as written, then without its
// infix. Only the infix-less hit changes the word.
func (s *state) checkInfixAndAllomorph() {
	if s.rs.infix != nil {
		if bare, token, ok := s.rs.infix.apply(s.word); ok {
			if s.allomorphHit(s.word) {
				s.found = true
				return
			}
			if s.allomorphHit(bare) {
				s.word = bare
				s.infix = token
				s.found = true
			}
			return
		}
	}
	s.found = s.allomorphHit(s.word)
}

func (s *state) allomorphHit(w string) bool {
	if s.isRoot(w) {
		return true
	}
	for _, group := range s.rs.allomorphs {
		for _, r := range group {
			if rest, _, ok := r.apply(w); ok && s.isRoot(rest) {
				return true
			}
		}
	}
	return false
}

// result applies the post-success fix-ups. A hit that leaves no affix is
// reported as not found.
func (s *state) result() models.StemResult {
	if s.rs.unfuse {
		s.unfuse()
	}
	if s.rs.recode {
		s.recodeAffixes()
	}
	affixes := s.removed
	if s.infix != "" {
		affixes = insertAt(affixes, countPrefixes(affixes), s.infix)
	}
	if len(affixes) == 0 {
		return notFound(s.original)
	}
	return models.StemResult{BaseWord: s.word, AffixSequence: affixes}
}

func notFound(word string) models.StemResult {
	return models.StemResult{BaseWord: word, AffixSequence: []string{}}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func insertAt(list []string, i int, s string) []string {
	if i > len(list) {
		i = len(list)
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, s)
	return append(out, list[i:]...)
}

func countPrefixes(affixes []string) int {
	n := 0
	for _, a := range affixes {
		if !models.IsPrefix(a) {
			break
		}
		n++
	}
	return n
}
