package rules

import (
	"fmt"
	"strings"
)

// Delimiters separate words. They stand in for \b, which fails when adjacent
// characters come from different Unicode blocks.
var Delimiters = []string{
	" ", ".", ",", "?", "!", `"`, "(", ")", "-", ":", ";", "،", "؛", "؟",
}

// DelimiterClass is the escaped body of a character class over Delimiters.
var DelimiterClass = Escape(strings.Join(Delimiters, ""))

// Boundary anchors a key relative to word edges.
type Boundary int

const (
	Anywhere Boundary = iota
	WordBeginning
	WordEnding
	SingleWord
	NotWordBeginning
	NotWordEnding
	// AfterAny requires one character of any kind before the key.
	AfterAny
)

var boundaryNames = map[string]Boundary{
	"":                   Anywhere,
	"anywhere":           Anywhere,
	"word-beginning":     WordBeginning,
	"word-ending":        WordEnding,
	"single-word":        SingleWord,
	"not-word-beginning": NotWordBeginning,
	"not-word-ending":    NotWordEnding,
	"after-any":          AfterAny,
}

// ParseBoundary maps a catalog name to a Boundary.
func ParseBoundary(name string) (Boundary, error) {
	b, ok := boundaryNames[name]
	if !ok {
		return Anywhere, fmt.Errorf("unknown boundary %q", name)
	}
	return b, nil
}

// Context conditions a table on word edges and neighbouring text. The
// lookaround fields hold raw regex source.
type Context struct {
	Boundary  Boundary
	After     string
	NotAfter  string
	Before    string
	NotBefore string
}

// Apply wraps every pair in c. Anchors and lookaround context are never
// consumed, or are re-emitted through a back-reference when they are.
func (c Context) Apply(pairs []Pair) []Rule {
	out := make([]Rule, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, c.rule(p))
	}
	return out
}

func (c Context) rule(p Pair) Rule {
	var core strings.Builder
	if c.After != "" {
		core.WriteString("(?<=(?:" + c.After + "))")
	}
	if c.NotAfter != "" {
		core.WriteString("(?<!(?:" + c.NotAfter + "))")
	}
	core.WriteString(Escape(p.Key))
	if c.Before != "" {
		core.WriteString("(?=(?:" + c.Before + "))")
	}
	if c.NotBefore != "" {
		core.WriteString("(?!(?:" + c.NotBefore + "))")
	}

	val := escapeReplacement(p.Val)
	start := "(^|[" + DelimiterClass + "])"
	end := "($|[" + DelimiterClass + "])"
	inner := "([^" + DelimiterClass + "])"

	var pattern, replace string
	switch c.Boundary {
	case WordBeginning:
		pattern, replace = start+core.String(), "${1}"+val
	case WordEnding:
		pattern, replace = core.String()+end, val+"${1}"
	case SingleWord:
		pattern, replace = start+core.String()+end, "${1}"+val+"${2}"
	case NotWordBeginning:
		pattern, replace = inner+core.String(), "${1}"+val
	case NotWordEnding:
		pattern, replace = core.String()+inner, val+"${1}"
	case AfterAny:
		pattern, replace = "(.)"+core.String(), "${1}"+val
	default:
		pattern, replace = core.String(), val
	}
	return Rule{Pattern: pattern, Replace: replace, Regex: true, Key: p.Key}
}

// AsWordBeginning matches keys only at the start of a word.
func AsWordBeginning(pairs []Pair) []Rule {
	return Context{Boundary: WordBeginning}.Apply(pairs)
}

// AsWordEnding matches keys only at the end of a word.
func AsWordEnding(pairs []Pair) []Rule {
	return Context{Boundary: WordEnding}.Apply(pairs)
}

// AsSingleWord matches keys that form a whole word.
func AsSingleWord(pairs []Pair) []Rule {
	return Context{Boundary: SingleWord}.Apply(pairs)
}

// AsNotWordBeginning requires a non-delimiter before the key.
func AsNotWordBeginning(pairs []Pair) []Rule {
	return Context{Boundary: NotWordBeginning}.Apply(pairs)
}

// AsNotWordEnding requires a non-delimiter after the key.
func AsNotWordEnding(pairs []Pair) []Rule {
	return Context{Boundary: NotWordEnding}.Apply(pairs)
}

// Before matches p only when ahead follows.
func Before(p Pair, ahead string) Rule {
	return Context{Before: ahead}.rule(p)
}

// After matches p only when behind precedes.
func After(behind string, p Pair) Rule {
	return Context{After: behind}.rule(p)
}

// Between matches p only when enclosed by behind and ahead.
func Between(behind string, p Pair, ahead string) Rule {
	return Context{After: behind, Before: ahead}.rule(p)
}

// NotBefore matches p unless ahead follows.
func NotBefore(p Pair, ahead string) Rule {
	return Context{NotBefore: ahead}.rule(p)
}

// NotAfter matches p unless behind precedes.
func NotAfter(behind string, p Pair) Rule {
	return Context{NotAfter: behind}.rule(p)
}
