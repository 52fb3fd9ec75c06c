// Package catalog loads the declarative rule catalog: literal tables,
// tables derived from them, per-variant overrides and the stage lists of
// every scheme. It builds frozen schemes for one variant at a time.
package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/rules"
	"github.com/Kush-Singh-26/aksara/builder/scheme"
	"github.com/Kush-Singh-26/aksara/builder/utils"
)

var (
	// ErrUnknownTable is returned when a derivation, stage or affix entry
	// names a table the catalog does not define.
	ErrUnknownTable = errors.New("unknown table")
	// ErrCycle is returned when derived tables refer to each other.
	ErrCycle = errors.New("table derivation cycle")
)

// Kind names one scheme of a variant.
type Kind string

const (
	Forward  Kind = "forward"
	Inverse  Kind = "inverse"
	Standard Kind = "standard"
	IME      Kind = "ime"
)

// Kinds lists every scheme kind in build order.
var Kinds = []Kind{Forward, Inverse, Standard, IME}

// Derivation builds a table out of other tables. Exactly one of Chain,
// Product, Transitive, Inverse or Map is set; the remaining fields filter
// the result in the order they are declared.
type Derivation struct {
	Chain      []string `yaml:"chain"`
	Product    []string `yaml:"product"`
	Transitive []string `yaml:"transitive"`
	Inverse    string   `yaml:"inverse"`
	Map        string   `yaml:"map"`
	Key        string   `yaml:"key"`
	Val        string   `yaml:"val"`

	Without   []string `yaml:"without"`
	Keep      []string `yaml:"keep"`
	MinKeyLen int      `yaml:"min-key-len"`
	Dedupe    bool     `yaml:"dedupe"`
}

// VariantOverride substitutes tables for one variant.
type VariantOverride struct {
	Tables map[string]string `yaml:"tables"`
}

// StageDef declares one named stage of a scheme.
type StageDef struct {
	Name      string           `yaml:"name"`
	Rules     []string         `yaml:"rules"`
	Boundary  string           `yaml:"boundary"`
	Before    string           `yaml:"before"`
	NotBefore string           `yaml:"not-before"`
	After     string           `yaml:"after"`
	NotAfter  string           `yaml:"not-after"`
	Invert    bool             `yaml:"invert"`
	Only      []models.Variant `yaml:"only"`
}

// AppliesTo reports whether the stage is part of v's scheme.
func (d StageDef) AppliesTo(v models.Variant) bool {
	if len(d.Only) == 0 {
		return true
	}
	for _, o := range d.Only {
		if o == v {
			return true
		}
	}
	return false
}

// AffixDef points at the tables and patterns used to write the affixes of
// a stemmed word.
type AffixDef struct {
	Prefixes      string `yaml:"prefixes"`
	AltPrefixes   string `yaml:"alt-prefixes"`
	AltPrefix     string `yaml:"alt-prefix"`
	AltBase       string `yaml:"alt-base"`
	Suffixes      string `yaml:"suffixes"`
	SuffixI       string `yaml:"suffix-i"`
	VowelSuffixes string `yaml:"vowel-suffixes"`
	VowelBase     string `yaml:"vowel-base"`
	VowelSuffix   string `yaml:"vowel-suffix"`
	AnOpen        string `yaml:"an-open"`
	AnAfterA      string `yaml:"an-after-a"`
	AnClosed      string `yaml:"an-closed"`
}

func (a AffixDef) tables() []string {
	var out []string
	for _, name := range []string{
		a.Prefixes, a.AltPrefixes, a.Suffixes, a.SuffixI,
		a.VowelSuffixes, a.AnOpen, a.AnAfterA, a.AnClosed,
	} {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

type document struct {
	Name     string                             `yaml:"name"`
	Version  int                                `yaml:"version"`
	Tables   map[string][][]string              `yaml:"tables"`
	Derived  map[string]Derivation              `yaml:"derived"`
	Variants map[models.Variant]VariantOverride `yaml:"variants"`
	Schemes  map[Kind][]StageDef                `yaml:"schemes"`
	Affixes  map[models.Variant]AffixDef        `yaml:"affixes"`
}

// Catalog is a parsed, validated rule catalog. Resolved tables are cached
// per variant, and every build shares one pattern compiler.
type Catalog struct {
	doc         document
	tables      map[string][]rules.Pair
	fingerprint string
	compiler    *scheme.Compiler

	mu       sync.Mutex
	resolved map[models.Variant]map[string][]rules.Pair
}

// Parse decodes and validates a catalog. Every variant is resolved once so
// that a broken reference fails here rather than at build time.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		doc:         doc,
		tables:      make(map[string][]rules.Pair, len(doc.Tables)),
		fingerprint: utils.HashContent(data),
		compiler:    scheme.NewCompiler(),
		resolved:    make(map[models.Variant]map[string][]rules.Pair),
	}
	for name, rows := range doc.Tables {
		pairs := make([]rules.Pair, len(rows))
		for i, row := range rows {
			if len(row) != 2 {
				return nil, fmt.Errorf("failed to parse catalog: table %s row %d has %d cells, want 2", name, i, len(row))
			}
			pairs[i] = rules.P(row[0], row[1])
		}
		c.tables[name] = pairs
	}
	for name, d := range doc.Derived {
		if _, dup := c.tables[name]; dup {
			return nil, fmt.Errorf("failed to parse catalog: %s is both a table and a derivation", name)
		}
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: derivation %s: %w", name, err)
		}
	}
	for kind := range doc.Schemes {
		if !knownKind(kind) {
			return nil, fmt.Errorf("failed to parse catalog: unknown scheme %q", kind)
		}
	}
	for v := range doc.Variants {
		if _, err := models.ParseVariant(string(v)); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
	}

	for _, v := range models.Variants {
		if err := c.validateVariant(v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Load reads and parses a catalog file from fs.
func Load(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func (d Derivation) validate() error {
	ops := 0
	if len(d.Chain) > 0 {
		ops++
	}
	if len(d.Product) > 0 {
		ops++
		if len(d.Product) < 2 {
			return errors.New("product needs at least two tables")
		}
	}
	if len(d.Transitive) > 0 {
		ops++
	}
	if d.Inverse != "" {
		ops++
	}
	if d.Map != "" {
		ops++
		if d.Key == "" && d.Val == "" {
			return errors.New("map needs a key or val template")
		}
	}
	if ops != 1 {
		return fmt.Errorf("want exactly one of chain, product, transitive, inverse or map, got %d", ops)
	}
	return nil
}

func knownKind(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (c *Catalog) validateVariant(v models.Variant) error {
	if err := c.resolveDerived(v); err != nil {
		return err
	}
	for _, kind := range Kinds {
		if _, err := c.Stages(v, kind); err != nil {
			return err
		}
	}
	if def, ok := c.doc.Affixes[v]; ok {
		for _, name := range def.tables() {
			if _, err := c.Table(v, name); err != nil {
				return fmt.Errorf("failed to resolve affixes for %s: %w", v, err)
			}
		}
	}
	return nil
}

// Name is the catalog's declared name.
func (c *Catalog) Name() string { return c.doc.Name }

// Version is the catalog's declared version.
func (c *Catalog) Version() int { return c.doc.Version }

// Fingerprint is the BLAKE3 hash of the catalog source.
func (c *Catalog) Fingerprint() string { return c.fingerprint }

// Compiler returns the pattern compiler shared by every build.
func (c *Catalog) Compiler() *scheme.Compiler { return c.compiler }

// TableNames lists the literal tables the catalog defines.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	return names
}

// Affixes returns the affix definition of v and whether one exists.
func (c *Catalog) Affixes(v models.Variant) (AffixDef, bool) {
	def, ok := c.doc.Affixes[v]
	return def, ok
}

// StageDefs returns the declared stages of a scheme kind that apply to v.
func (c *Catalog) StageDefs(v models.Variant, kind Kind) []StageDef {
	var out []StageDef
	for _, d := range c.doc.Schemes[kind] {
		if d.AppliesTo(v) {
			out = append(out, d)
		}
	}
	return out
}
