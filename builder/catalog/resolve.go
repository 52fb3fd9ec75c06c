package catalog

import (
	"fmt"
	"unicode/utf8"

	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/rules"
)

// resolver evaluates table names for one variant. done is shared with the
// catalog cache; visiting tracks the derivation path for cycle detection.
type resolver struct {
	c        *Catalog
	variant  models.Variant
	alias    map[string]string
	done     map[string][]rules.Pair
	visiting map[string]bool
}

// Table resolves a literal or derived table for v, applying v's overrides.
// The returned slice is a copy.
func (c *Catalog) Table(v models.Variant, name string) ([]rules.Pair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pairs, err := c.resolverFor(v).table(name)
	if err != nil {
		return nil, err
	}
	return append([]rules.Pair(nil), pairs...), nil
}

// chained resolves several names under one lock and chains them.
func (c *Catalog) chained(v models.Variant, names []string) ([]rules.Pair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.resolverFor(v)
	lists := make([][]rules.Pair, 0, len(names))
	for _, name := range names {
		pairs, err := r.table(name)
		if err != nil {
			return nil, err
		}
		lists = append(lists, pairs)
	}
	return rules.Chain(lists...), nil
}

func (c *Catalog) resolveDerived(v models.Variant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.resolverFor(v)
	for name := range c.doc.Derived {
		if _, err := r.resolve(name); err != nil {
			return fmt.Errorf("failed to resolve %s tables: %w", v, err)
		}
	}
	return nil
}

// resolverFor must be called with c.mu held.
func (c *Catalog) resolverFor(v models.Variant) *resolver {
	done, ok := c.resolved[v]
	if !ok {
		done = make(map[string][]rules.Pair)
		c.resolved[v] = done
	}
	return &resolver{
		c:        c,
		variant:  v,
		alias:    c.doc.Variants[v].Tables,
		done:     done,
		visiting: make(map[string]bool),
	}
}

func (r *resolver) table(name string) ([]rules.Pair, error) {
	if to, ok := r.alias[name]; ok {
		name = to
	}
	return r.resolve(name)
}

func (r *resolver) resolve(name string) ([]rules.Pair, error) {
	if pairs, ok := r.done[name]; ok {
		return pairs, nil
	}
	if pairs, ok := r.c.tables[name]; ok {
		r.done[name] = pairs
		return pairs, nil
	}
	d, ok := r.c.doc.Derived[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	if r.visiting[name] {
		return nil, fmt.Errorf("%w: %s", ErrCycle, name)
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	pairs, err := r.derive(d)
	if err != nil {
		return nil, fmt.Errorf("failed to derive %s: %w", name, err)
	}
	r.done[name] = pairs
	return pairs, nil
}

func (r *resolver) all(names []string) ([][]rules.Pair, error) {
	out := make([][]rules.Pair, 0, len(names))
	for _, n := range names {
		pairs, err := r.table(n)
		if err != nil {
			return nil, err
		}
		out = append(out, pairs)
	}
	return out, nil
}

func (r *resolver) derive(d Derivation) ([]rules.Pair, error) {
	var pairs []rules.Pair
	switch {
	case len(d.Chain) > 0:
		lists, err := r.all(d.Chain)
		if err != nil {
			return nil, err
		}
		pairs = rules.Chain(lists...)
	case len(d.Product) > 0:
		lists, err := r.all(d.Product)
		if err != nil {
			return nil, err
		}
		pairs = lists[0]
		for _, next := range lists[1:] {
			pairs = rules.Product(pairs, next)
		}
	case len(d.Transitive) > 0:
		lists, err := r.all(d.Transitive)
		if err != nil {
			return nil, err
		}
		pairs = rules.MakeTransitive(lists...)
	case d.Inverse != "":
		src, err := r.table(d.Inverse)
		if err != nil {
			return nil, err
		}
		pairs = rules.Inverse(src)
	case d.Map != "":
		src, err := r.table(d.Map)
		if err != nil {
			return nil, err
		}
		keyTmpl, valTmpl := d.Key, d.Val
		if keyTmpl == "" {
			keyTmpl = "{k}"
		}
		if valTmpl == "" {
			valTmpl = "{v}"
		}
		pairs = rules.MapPairs(src, keyTmpl, valTmpl)
	}

	if len(d.Without) > 0 {
		pairs = rules.Without(pairs, d.Without...)
	}
	if len(d.Keep) > 0 {
		keep := make(map[string]struct{}, len(d.Keep))
		for _, k := range d.Keep {
			keep[k] = struct{}{}
		}
		pairs = rules.Filter(pairs, func(p rules.Pair) bool {
			_, ok := keep[p.Key]
			return ok
		})
	}
	if d.MinKeyLen > 0 {
		pairs = rules.Filter(pairs, func(p rules.Pair) bool {
			return utf8.RuneCountInString(p.Key) >= d.MinKeyLen
		})
	}
	if d.Dedupe {
		pairs = rules.Dedupe(pairs)
	}
	return pairs, nil
}
