package pegon

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/Kush-Singh-26/aksara/builder/catalog"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/rules"
	"github.com/Kush-Singh-26/aksara/builder/scheme"
)

// suffixIFallback keys the -i spelling used after a letter the table does
// not list.
const suffixIFallback = "*"

// affixWriter spells the affixes of a stem result with the variant's affix
// tables. Each table runs as a one-stage scheme.
type affixWriter struct {
	prefixes      *scheme.Scheme
	altPrefixes   *scheme.Scheme
	suffixes      *scheme.Scheme
	vowelSuffixes *scheme.Scheme
	anOpen        *scheme.Scheme
	anAfterA      *scheme.Scheme
	anClosed      *scheme.Scheme
	suffixI       map[string]string

	altPrefix   *regexp2.Regexp
	altBase     *regexp2.Regexp
	vowelBase   *regexp2.Regexp
	vowelSuffix *regexp2.Regexp
}

func newAffixWriter(cat *catalog.Catalog, v models.Variant, def catalog.AffixDef) (*affixWriter, error) {
	w := &affixWriter{}
	tables := []struct {
		name string
		dst  **scheme.Scheme
	}{
		{def.Prefixes, &w.prefixes},
		{def.AltPrefixes, &w.altPrefixes},
		{def.Suffixes, &w.suffixes},
		{def.VowelSuffixes, &w.vowelSuffixes},
		{def.AnOpen, &w.anOpen},
		{def.AnAfterA, &w.anAfterA},
		{def.AnClosed, &w.anClosed},
	}
	for _, tb := range tables {
		if tb.name == "" {
			continue
		}
		s, err := compileTable(cat, v, tb.name)
		if err != nil {
			return nil, err
		}
		*tb.dst = s
	}
	if w.prefixes == nil || w.suffixes == nil {
		return nil, fmt.Errorf("affixes need prefix and suffix tables")
	}

	if def.SuffixI != "" {
		pairs, err := cat.Table(v, def.SuffixI)
		if err != nil {
			return nil, err
		}
		w.suffixI = make(map[string]string, len(pairs))
		for _, p := range pairs {
			w.suffixI[p.Key] = p.Val
		}
	}

	patterns := []struct {
		src string
		dst **regexp2.Regexp
	}{
		{def.AltPrefix, &w.altPrefix},
		{def.AltBase, &w.altBase},
		{def.VowelBase, &w.vowelBase},
		{def.VowelSuffix, &w.vowelSuffix},
	}
	for _, p := range patterns {
		if p.src == "" {
			continue
		}
		re, err := regexp2.Compile(p.src, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("failed to compile affix pattern %q: %w", p.src, err)
		}
		*p.dst = re
	}
	return w, nil
}

func compileTable(cat *catalog.Catalog, v models.Variant, name string) (*scheme.Scheme, error) {
	pairs, err := cat.Table(v, name)
	if err != nil {
		return nil, err
	}
	return cat.Compiler().Compile(string(v)+"/"+name, scheme.StageSpec{Name: name, Rules: rules.Plain(pairs)})
}

func matches(re *regexp2.Regexp, s string) bool {
	if re == nil {
		return false
	}
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// write returns the spelled prefixes and suffixes of r. Infix tokens are
// part of the base and are skipped here.
func (w *affixWriter) write(r models.StemResult) (prefix, suffix string) {
	var pb, sb strings.Builder
	for _, a := range r.AffixSequence {
		switch {
		case models.IsInfix(a):
		case models.IsPrefix(a):
			pb.WriteString(w.prefix(strings.TrimSuffix(a, "-"), r.BaseWord))
		case models.IsSuffix(a):
			sb.WriteString(w.suffix(strings.TrimPrefix(a, "-"), r.BaseWord))
		}
	}
	return pb.String(), sb.String()
}

func (w *affixWriter) prefix(p, base string) string {
	if w.altPrefixes != nil && matches(w.altBase, base) && matches(w.altPrefix, p) {
		return w.altPrefixes.Transliterate(p)
	}
	return w.prefixes.Transliterate(p)
}

func (w *affixWriter) suffix(s, base string) string {
	last := lastLetter(base)

	if w.suffixI != nil && s == "i" {
		if val, ok := w.suffixI[last]; ok {
			return val
		}
		return w.suffixI[suffixIFallback]
	}

	if strings.HasPrefix(s, "an") && w.anOpen != nil && w.anAfterA != nil && w.anClosed != nil {
		switch {
		case strings.ContainsAny(last, "iueo"):
			return w.anOpen.Transliterate(s)
		case last == "a":
			return w.anAfterA.Transliterate(s)
		default:
			return w.anClosed.Transliterate(s)
		}
	}

	if w.vowelSuffixes != nil && matches(w.vowelBase, base) && matches(w.vowelSuffix, s) {
		return w.vowelSuffixes.Transliterate(last + s)
	}
	return w.suffixes.Transliterate(s)
}

func lastLetter(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[len(s)-size:]
}
