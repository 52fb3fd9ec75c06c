// Package rules holds the rewrite-rule model and the algebra used to build
// transliteration tables out of smaller ones.
package rules

import (
	"strings"
)

// Pair is a plain rule: a literal key and its literal replacement.
type Pair struct {
	Key string
	Val string
}

// Rule is a single rewrite step. Plain rules carry a literal pattern that
// Prepare escapes; regex rules are used as-is. Replace may reference capture
// groups with ${n}.
type Rule struct {
	Pattern string
	Replace string
	Regex   bool
	// Key is the literal core a regex rule was derived from, if any.
	Key string
}

// P is shorthand for building a Pair.
func P(key, val string) Pair {
	return Pair{Key: key, Val: val}
}

// Plain converts pairs into unescaped literal rules.
func Plain(pairs []Pair) []Rule {
	out := make([]Rule, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Rule{Pattern: p.Key, Replace: p.Val, Key: p.Key})
	}
	return out
}

// Product pairs every left entry with every right entry, concatenating keys
// and values. Ordering is left-major.
func Product(left, right []Pair) []Pair {
	out := make([]Pair, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			out = append(out, Pair{Key: l.Key + r.Key, Val: l.Val + r.Val})
		}
	}
	return out
}

// Chain concatenates pair lists, keeping each list's relative order.
func Chain(lists ...[]Pair) []Pair {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]Pair, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// ChainRules is Chain for compiled-form rules.
func ChainRules(lists ...[]Rule) []Rule {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]Rule, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

const specials = `.*+?^${}()|[]\-`

// Escape backslash-escapes every regex metacharacter in s.
func Escape(s string) string {
	if !strings.ContainsAny(s, specials) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeReplacement protects literal dollars in a plain replacement.
func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// Prepare escapes all plain rules so they match literally. Regex rules pass
// through untouched. The result is a new slice; every returned rule is a regex.
func Prepare(rs []Rule) []Rule {
	out := make([]Rule, len(rs))
	for i, r := range rs {
		if r.Regex {
			out[i] = r
			continue
		}
		out[i] = Rule{
			Pattern: Escape(r.Pattern),
			Replace: escapeReplacement(r.Replace),
			Regex:   true,
			Key:     r.Pattern,
		}
	}
	return out
}

// Inverse swaps key and value of every pair.
func Inverse(pairs []Pair) []Pair {
	out := make([]Pair, len(pairs))
	for i, p := range pairs {
		out[i] = Pair{Key: p.Val, Val: p.Key}
	}
	return out
}

// MakeTransitive collapses a multi-stage pipeline into one table, processing
// stages right to left. A left key that prefixes a right key rewrites that
// prefix with the left value; unmatched right entries pass through and the
// left stage's own entries are appended after.
func MakeTransitive(stages ...[]Pair) []Pair {
	if len(stages) == 0 {
		return nil
	}
	acc := append([]Pair(nil), stages[len(stages)-1]...)
	for i := len(stages) - 2; i >= 0; i-- {
		left := stages[i]
		next := make([]Pair, 0, len(acc)+len(left))
		for _, r := range acc {
			matched := false
			for _, l := range left {
				if strings.HasPrefix(r.Key, l.Key) {
					matched = true
					next = append(next, Pair{Key: l.Val + r.Key[len(l.Key):], Val: r.Val})
				}
			}
			if !matched {
				next = append(next, r)
			}
		}
		acc = append(next, left...)
	}
	return acc
}

// Without drops every pair whose key is in keys.
func Without(pairs []Pair, keys ...string) []Pair {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	return Filter(pairs, func(p Pair) bool {
		_, ok := drop[p.Key]
		return !ok
	})
}

// Filter keeps the pairs for which keep returns true.
func Filter(pairs []Pair, keep func(Pair) bool) []Pair {
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// MapPairs rewrites each pair through key and value templates, where {k} and
// {v} expand to the original key and value.
func MapPairs(pairs []Pair, keyTmpl, valTmpl string) []Pair {
	out := make([]Pair, len(pairs))
	for i, p := range pairs {
		r := strings.NewReplacer("{k}", p.Key, "{v}", p.Val)
		out[i] = Pair{Key: r.Replace(keyTmpl), Val: r.Replace(valTmpl)}
	}
	return out
}

// Dedupe keeps the first pair seen for each key.
func Dedupe(pairs []Pair) []Pair {
	seen := make(map[string]struct{}, len(pairs))
	return Filter(pairs, func(p Pair) bool {
		if _, ok := seen[p.Key]; ok {
			return false
		}
		seen[p.Key] = struct{}{}
		return true
	})
}

// Keys lists the keys in order.
func Keys(pairs []Pair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Key
	}
	return out
}

// Values lists the values in order.
func Values(pairs []Pair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Val
	}
	return out
}
