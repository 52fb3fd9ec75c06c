package scheme

import (
	"github.com/Kush-Singh-26/aksara/builder/rules"
)

// Invert builds reverse-direction rules from forward pairs. Pairs must be
// given in forward priority order: when several forward keys share one
// output, the first one becomes the canonical reverse result. Context is
// derived fresh for the target script rather than copied from the forward
// rules. Pairs whose forward output is empty cannot be reversed and are
// dropped.
func Invert(pairs []rules.Pair, ctx rules.Context) []rules.Rule {
	inv := rules.Filter(rules.Dedupe(rules.Inverse(pairs)), func(p rules.Pair) bool {
		return p.Key != ""
	})
	return ctx.Apply(inv)
}

// InverseStage wraps Invert in a named stage.
func InverseStage(name string, pairs []rules.Pair, ctx rules.Context) StageSpec {
	return StageSpec{Name: name, Rules: Invert(pairs, ctx)}
}
