// Package scheme compiles ordered rule stages into an immutable pipeline and
// runs text through it.
package scheme

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/Kush-Singh-26/aksara/builder/rules"
)

// StageSpec is the uncompiled form of a stage.
type StageSpec struct {
	Name  string
	Rules []rules.Rule
}

// StageInfo describes a compiled stage.
type StageInfo struct {
	Name  string
	Rules int
}

type compiledRule struct {
	rule rules.Rule
	// re is nil for plain rules, which replace literal with val directly.
	re  *regexp2.Regexp
	val string
	// literal must occur in the text for the rule to match; empty means
	// the rule always runs.
	literal string
}

type stage struct {
	name  string
	rules []compiledRule
}

// Scheme is an ordered list of named stages for one direction of one
// variant. It is immutable after Compile and safe for concurrent use.
type Scheme struct {
	name   string
	stages []stage
}

// Compiler compiles schemes and shares compiled patterns between them.
// Variants of one catalog repeat most of their patterns, so a catalog keeps
// one Compiler for all of its builds.
type Compiler struct {
	mu       sync.RWMutex
	patterns map[string]*regexp2.Regexp
}

// NewCompiler returns a Compiler with an empty pattern cache.
func NewCompiler() *Compiler {
	return &Compiler{patterns: make(map[string]*regexp2.Regexp)}
}

func (c *Compiler) regexp(pattern string) (*regexp2.Regexp, error) {
	c.mu.RLock()
	re, ok := c.patterns[pattern]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.patterns[pattern] = re
	c.mu.Unlock()
	return re, nil
}

// Patterns reports how many distinct patterns have been compiled.
func (c *Compiler) Patterns() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.patterns)
}

// Compile prepares and compiles every rule of every stage. It fails on the
// first pattern that does not compile. Plain rules skip the regex engine
// and run as literal replacements.
func (c *Compiler) Compile(name string, specs ...StageSpec) (*Scheme, error) {
	s := &Scheme{name: name, stages: make([]stage, 0, len(specs))}
	for _, spec := range specs {
		prepared := rules.Prepare(spec.Rules)
		st := stage{name: spec.Name, rules: make([]compiledRule, 0, len(prepared))}
		for i, r := range prepared {
			if r.Pattern == "" {
				return nil, fmt.Errorf("failed to compile %s/%s rule %d: empty pattern", name, spec.Name, i)
			}
			if !spec.Rules[i].Regex {
				st.rules = append(st.rules, compiledRule{rule: r, val: spec.Rules[i].Replace, literal: r.Key})
				continue
			}
			re, err := c.regexp(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to compile %s/%s rule %d %q: %w", name, spec.Name, i, r.Pattern, err)
			}
			st.rules = append(st.rules, compiledRule{rule: r, re: re, literal: r.Key})
		}
		s.stages = append(s.stages, st)
	}
	return s, nil
}

// Compile compiles a standalone scheme without a shared cache.
func Compile(name string, specs ...StageSpec) (*Scheme, error) {
	return NewCompiler().Compile(name, specs...)
}

// Name returns the name the scheme was compiled with.
func (s *Scheme) Name() string { return s.name }

// Transliterate folds text through every rule in order. Each rule is one
// global replace over the output of the rule before it.
func (s *Scheme) Transliterate(text string) string {
	if text == "" {
		return ""
	}
	for i := range s.stages {
		text = s.stages[i].apply(text)
	}
	return text
}

func (st *stage) apply(text string) string {
	for _, r := range st.rules {
		if r.literal != "" && !strings.Contains(text, r.literal) {
			continue
		}
		if r.re == nil {
			text = strings.ReplaceAll(text, r.literal, r.val)
			continue
		}
		out, err := r.re.Replace(text, r.rule.Replace, -1, -1)
		if err != nil {
			// Only a match timeout can fail here; the rule is skipped.
			continue
		}
		text = out
	}
	return text
}

// Stages lists stage names and rule counts in execution order.
func (s *Scheme) Stages() []StageInfo {
	out := make([]StageInfo, len(s.stages))
	for i, st := range s.stages {
		out[i] = StageInfo{Name: st.name, Rules: len(st.rules)}
	}
	return out
}

// RuleCount is the total number of compiled rules.
func (s *Scheme) RuleCount() int {
	n := 0
	for _, st := range s.stages {
		n += len(st.rules)
	}
	return n
}

// stageRules exposes a stage's prepared rules to the guard.
func (s *Scheme) stageRules(i int) []rules.Rule {
	out := make([]rules.Rule, len(s.stages[i].rules))
	for j, r := range s.stages[i].rules {
		out[j] = r.rule
	}
	return out
}
