package scheme

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/dlclark/regexp2"
)

// ErrReentry is returned by Verify in strict mode when a later stage can
// match text produced by an earlier one.
var ErrReentry = errors.New("stage output re-enters a later stage")

// Conflict records one earlier output that contains a later stage's key.
type Conflict struct {
	Stage      string
	Output     string
	LaterStage string
	Key        string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s output %q contains %s key %q", c.Stage, c.Output, c.LaterStage, c.Key)
}

var backReference = regexp2.MustCompile(`\$\{\d+\}|\$\d+`, regexp2.None)

// literalOutput strips back-references from a replacement template and
// unescapes literal dollars.
func literalOutput(replace string) string {
	out, err := backReference.Replace(strings.ReplaceAll(replace, "$$", "\x00"), "", -1, -1)
	if err != nil {
		out = replace
	}
	return strings.ReplaceAll(out, "\x00", "$")
}

type keyIndex struct {
	keys []string
	ac   *ahocorasick.Automaton
}

func buildKeyIndex(keys []string) (*keyIndex, error) {
	if len(keys) == 0 {
		return &keyIndex{}, nil
	}
	ac, err := ahocorasick.NewBuilder().
		AddStrings(keys).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	return &keyIndex{keys: keys, ac: ac}, nil
}

func (k *keyIndex) find(text string) []string {
	if k.ac == nil {
		return nil
	}
	var hits []string
	seen := make(map[int]struct{})
	for _, m := range k.ac.FindAllOverlapping([]byte(text)) {
		if _, ok := seen[m.PatternID]; ok {
			continue
		}
		seen[m.PatternID] = struct{}{}
		hits = append(hits, k.keys[m.PatternID])
	}
	return hits
}

// CheckReentry reports every case where the literal part of a stage's
// replacement contains the literal key of a rule in a later stage. Rules
// without a literal key are not checked.
func CheckReentry(s *Scheme) ([]Conflict, error) {
	indexes := make([]*keyIndex, len(s.stages))
	for j := range s.stages {
		seen := make(map[string]struct{})
		var keys []string
		for _, r := range s.stages[j].rules {
			if r.literal == "" {
				continue
			}
			if _, ok := seen[r.literal]; ok {
				continue
			}
			seen[r.literal] = struct{}{}
			keys = append(keys, r.literal)
		}
		idx, err := buildKeyIndex(keys)
		if err != nil {
			return nil, fmt.Errorf("failed to index stage %s: %w", s.stages[j].name, err)
		}
		indexes[j] = idx
	}

	var conflicts []Conflict
	for i := range s.stages {
		outputs := make(map[string]struct{})
		for _, r := range s.stageRules(i) {
			out := literalOutput(r.Replace)
			if out == "" {
				continue
			}
			if _, ok := outputs[out]; ok {
				continue
			}
			outputs[out] = struct{}{}
			for j := i + 1; j < len(s.stages); j++ {
				for _, key := range indexes[j].find(out) {
					conflicts = append(conflicts, Conflict{
						Stage:      s.stages[i].name,
						Output:     out,
						LaterStage: s.stages[j].name,
						Key:        key,
					})
				}
			}
		}
	}
	return conflicts, nil
}

// Verify runs CheckReentry. In strict mode any conflict is an error wrapping
// ErrReentry; otherwise each conflict is logged as a warning.
func Verify(s *Scheme, strict bool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	conflicts, err := CheckReentry(s)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	if strict {
		return fmt.Errorf("%w: %s: %d conflicts, first: %s", ErrReentry, s.name, len(conflicts), conflicts[0])
	}
	for _, c := range conflicts {
		logger.Warn("stage re-entry", "scheme", s.name, "stage", c.Stage, "output", c.Output, "later", c.LaterStage, "key", c.Key)
	}
	return nil
}
