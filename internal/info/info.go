// Package info implements the info command, which describes the loaded
// catalog: its identity, the stages and rule counts of every scheme, and
// any stage re-entry the guard finds.
package info

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/catalog"
	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/dictionary"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/scheme"
	"github.com/Kush-Singh-26/aksara/builder/services"
)

// Report describes a catalog.
type Report struct {
	Catalog     string          `json:"catalog"`
	Version     int             `json:"version"`
	Fingerprint string          `json:"fingerprint"`
	Source      string          `json:"source"`
	Tables      int             `json:"tables"`
	Variants    []VariantReport `json:"variants"`
}

// VariantReport describes the schemes and word list of one variant.
type VariantReport struct {
	Variant models.Variant `json:"variant"`
	Words   int            `json:"words"`
	Schemes []SchemeReport `json:"schemes"`
}

// SchemeReport describes one compiled scheme.
type SchemeReport struct {
	Kind      catalog.Kind       `json:"kind"`
	Stages    []scheme.StageInfo `json:"stages"`
	Rules     int                `json:"rules"`
	Conflicts []scheme.Conflict  `json:"conflicts,omitempty"`
}

// Collect compiles the schemes of variants from the catalog and word lists
// named by cfg. IME schemes are not checked for re-entry.
func Collect(fs afero.Fs, cfg *config.Config, variants []models.Variant) (*Report, error) {
	cat, err := services.LoadCatalog(fs, cfg)
	if err != nil {
		return nil, err
	}

	source := cfg.Catalog
	if source == "" {
		source = "embedded"
	}
	r := &Report{
		Catalog:     cat.Name(),
		Version:     cat.Version(),
		Fingerprint: cat.Fingerprint(),
		Source:      source,
		Tables:      len(cat.TableNames()),
	}

	for _, v := range variants {
		vr := VariantReport{Variant: v}

		var dict *dictionary.Dictionary
		if cfg.DictionaryDir != "" {
			dict, err = dictionary.LoadVariant(fs, cfg.DictionaryDir, v)
		} else {
			dict, err = dictionary.Embedded(v)
		}
		if err != nil {
			return nil, err
		}
		vr.Words = dict.Len()

		for _, kind := range catalog.Kinds {
			s, err := cat.Compile(v, kind)
			if err != nil {
				return nil, fmt.Errorf("failed to compile %s %s: %w", v, kind, err)
			}
			sr := SchemeReport{Kind: kind, Stages: s.Stages(), Rules: s.RuleCount()}
			if kind != catalog.IME {
				if sr.Conflicts, err = scheme.CheckReentry(s); err != nil {
					return nil, err
				}
			}
			vr.Schemes = append(vr.Schemes, sr)
		}
		r.Variants = append(r.Variants, vr)
	}
	return r, nil
}

// Conflicts counts guard conflicts across all variants.
func (r *Report) Conflicts() int {
	n := 0
	for _, v := range r.Variants {
		for _, s := range v.Schemes {
			n += len(s.Conflicts)
		}
	}
	return n
}

// Print writes r for humans. With stages set, every stage is listed.
func (r *Report) Print(w io.Writer, stages bool) {
	fmt.Fprintf(w, "📚 Catalog %s (version %d)\n", r.Catalog, r.Version)
	fmt.Fprintln(w, "════════════════════════════════════════")
	fmt.Fprintf(w, "Source:       %s\n", r.Source)
	fmt.Fprintf(w, "Fingerprint:  %s\n", r.Fingerprint)
	fmt.Fprintf(w, "Tables:       %d\n", r.Tables)

	for _, v := range r.Variants {
		fmt.Fprintf(w, "\n🔤 %s (%d root words)\n", v.Variant, v.Words)
		fmt.Fprintln(w, "────────────────────────────────────────")
		for _, s := range v.Schemes {
			fmt.Fprintf(w, "%-9s %3d stages %5d rules\n", s.Kind, len(s.Stages), s.Rules)
			if stages {
				for _, st := range s.Stages {
					fmt.Fprintf(w, "    %-28s %5d\n", st.Name, st.Rules)
				}
			}
			for _, c := range s.Conflicts {
				fmt.Fprintf(w, "  ⚠️  %s\n", c)
			}
		}
	}

	if n := r.Conflicts(); n > 0 {
		fmt.Fprintf(w, "\n⚠️  %d stage re-entry conflicts\n", n)
	} else {
		fmt.Fprintln(w, "\n✅ No stage re-entry conflicts")
	}
}

// Run parses args and prints the report. Without -variant every variant is
// described.
func Run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	flags := config.AddFlags(fs)
	stages := fs.Bool("stages", false, "List every stage with its rule count")
	asJSON := fs.Bool("json", false, "Print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	osFs := afero.NewOsFs()
	cfg, v, err := flags.Load(osFs)
	if err != nil {
		return err
	}
	variants := models.Variants
	if flags.Variant != "" {
		variants = []models.Variant{v}
	}

	r, err := Collect(osFs, cfg, variants)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	r.Print(stdout, *stages)
	return nil
}
