package catalog

import (
	"fmt"
	"log/slog"

	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/rules"
	"github.com/Kush-Singh-26/aksara/builder/scheme"
)

// Schemes holds the frozen schemes of one variant.
type Schemes struct {
	Variant  models.Variant
	Forward  *scheme.Scheme
	Inverse  *scheme.Scheme
	Standard *scheme.Scheme
	IME      *scheme.Scheme
}

// Scheme returns the scheme of the given kind, or nil.
func (s *Schemes) Scheme(kind Kind) *scheme.Scheme {
	switch kind {
	case Forward:
		return s.Forward
	case Inverse:
		return s.Inverse
	case Standard:
		return s.Standard
	case IME:
		return s.IME
	}
	return nil
}

func (s *Schemes) set(kind Kind, sc *scheme.Scheme) {
	switch kind {
	case Forward:
		s.Forward = sc
	case Inverse:
		s.Inverse = sc
	case Standard:
		s.Standard = sc
	case IME:
		s.IME = sc
	}
}

// BuildOptions controls Build.
type BuildOptions struct {
	// Strict fails the build on any stage re-entry instead of logging it.
	Strict bool
	Logger *slog.Logger
}

// Stages turns the declared stage list of kind into compilable specs for v.
func (c *Catalog) Stages(v models.Variant, kind Kind) ([]scheme.StageSpec, error) {
	defs := c.StageDefs(v, kind)
	specs := make([]scheme.StageSpec, 0, len(defs))
	for i, d := range defs {
		spec, err := c.stage(v, d)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s/%s stage %d: %w", v, kind, i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (c *Catalog) stage(v models.Variant, d StageDef) (scheme.StageSpec, error) {
	if d.Name == "" {
		return scheme.StageSpec{}, fmt.Errorf("missing name")
	}
	if len(d.Rules) == 0 {
		return scheme.StageSpec{}, fmt.Errorf("%s: no rules", d.Name)
	}
	pairs, err := c.chained(v, d.Rules)
	if err != nil {
		return scheme.StageSpec{}, fmt.Errorf("%s: %w", d.Name, err)
	}
	boundary, err := rules.ParseBoundary(d.Boundary)
	if err != nil {
		return scheme.StageSpec{}, fmt.Errorf("%s: %w", d.Name, err)
	}
	ctx := rules.Context{
		Boundary:  boundary,
		After:     d.After,
		NotAfter:  d.NotAfter,
		Before:    d.Before,
		NotBefore: d.NotBefore,
	}

	if d.Invert {
		return scheme.InverseStage(d.Name, pairs, ctx), nil
	}
	for i, p := range pairs {
		if p.Key == "" {
			return scheme.StageSpec{}, fmt.Errorf("%s: rule %d has an empty key", d.Name, i)
		}
	}
	if ctx == (rules.Context{}) {
		return scheme.StageSpec{Name: d.Name, Rules: rules.Plain(pairs)}, nil
	}
	return scheme.StageSpec{Name: d.Name, Rules: ctx.Apply(pairs)}, nil
}

// Compile builds one scheme of v without running the re-entry guard.
func (c *Catalog) Compile(v models.Variant, kind Kind) (*scheme.Scheme, error) {
	specs, err := c.Stages(v, kind)
	if err != nil {
		return nil, err
	}
	return c.compiler.Compile(string(v)+"/"+string(kind), specs...)
}

// Build compiles every scheme of v and checks the forward, inverse and
// standard schemes for stage re-entry. IME schemes read their own output
// back on every keystroke, so the guard does not apply to them.
func (c *Catalog) Build(v models.Variant, opts BuildOptions) (*Schemes, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	out := &Schemes{Variant: v}
	for _, kind := range Kinds {
		s, err := c.Compile(v, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s schemes: %w", v, err)
		}
		if kind != IME {
			if err := scheme.Verify(s, opts.Strict, logger); err != nil {
				return nil, err
			}
		}
		out.set(kind, s)
	}
	logger.Debug("built schemes", "variant", v, "catalog", c.Name(),
		"forward", out.Forward.RuleCount(), "inverse", out.Inverse.RuleCount(),
		"standard", out.Standard.RuleCount(), "ime", out.IME.RuleCount())
	return out, nil
}
