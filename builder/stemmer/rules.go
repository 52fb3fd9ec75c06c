package stemmer

import (
	"embed"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"

	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/utils"
)

//go:embed data/*.yaml
var embedded embed.FS

// RuleDef is one affix pattern. Rest and Token are templates over the
// pattern's groups, written ${n}.
type RuleDef struct {
	Pattern string `yaml:"pattern"`
	Rest    string `yaml:"rest"`
	Token   string `yaml:"token"`
}

// RuleFile is the YAML form of a variant's stemming rules.
type RuleFile struct {
	Variant  models.Variant `yaml:"variant"`
	Syllable string         `yaml:"syllable"`
	// Passthrough disables stemming after the syllable guard.
	Passthrough bool `yaml:"passthrough"`
	// Unfuse rewrites a recorded nasal prefix into the base after a hit.
	Unfuse bool `yaml:"unfuse"`
	// Recode moves a trailing k or r of a prefix onto a vowel-initial base.
	Recode bool `yaml:"recode"`
	// KeepSurface reports an allomorph hit without adopting the
	// substituted root or recording a token.
	KeepSurface bool        `yaml:"keep-surface"`
	Infix       *RuleDef    `yaml:"infix"`
	Prefixes    []RuleDef   `yaml:"prefixes"`
	Suffixes    []RuleDef   `yaml:"suffixes"`
	Allomorphs  [][]RuleDef `yaml:"allomorphs"`
}

type rule struct {
	re    *regexp2.Regexp
	rest  []piece
	token []piece
}

// piece is a literal run or, when group >= 0, a group reference.
type piece struct {
	lit   string
	group int
}

// RuleSet is a compiled, immutable RuleFile.
type RuleSet struct {
	variant     models.Variant
	syllable    *regexp2.Regexp
	passthrough bool
	unfuse      bool
	recode      bool
	keepSurface bool
	infix       *rule
	prefixes    []rule
	suffixes    []rule
	allomorphs  [][]rule
	fingerprint string
}

// ParseRules decodes and compiles a rule file.
func ParseRules(data []byte) (*RuleSet, error) {
	var f RuleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse stemming rules: %w", err)
	}
	rs, err := Compile(f)
	if err != nil {
		return nil, err
	}
	rs.fingerprint = utils.HashContent(data)
	return rs, nil
}

// LoadRules returns the built-in rules for v.
func LoadRules(v models.Variant) (*RuleSet, error) {
	data, err := embedded.ReadFile(path.Join("data", string(v)+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read stemming rules for %s: %w", v, err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v, err)
	}
	if rs.variant != v {
		return nil, fmt.Errorf("stemming rules for %s declare variant %q", v, rs.variant)
	}
	return rs, nil
}

// Compile validates every pattern and template of f.
func Compile(f RuleFile) (*RuleSet, error) {
	if _, err := models.ParseVariant(string(f.Variant)); err != nil {
		return nil, fmt.Errorf("failed to compile stemming rules: %w", err)
	}
	if f.Syllable == "" {
		return nil, fmt.Errorf("failed to compile stemming rules for %s: no syllable pattern", f.Variant)
	}
	syl, err := regexp2.Compile(f.Syllable, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("failed to compile syllable pattern for %s: %w", f.Variant, err)
	}
	rs := &RuleSet{
		variant:     f.Variant,
		syllable:    syl,
		passthrough: f.Passthrough,
		unfuse:      f.Unfuse,
		recode:      f.Recode,
		keepSurface: f.KeepSurface,
	}

	if f.Infix != nil {
		r, err := compileRule(*f.Infix)
		if err != nil {
			return nil, fmt.Errorf("failed to compile infix rule for %s: %w", f.Variant, err)
		}
		rs.infix = &r
	}
	if rs.prefixes, err = compileList(f.Prefixes); err != nil {
		return nil, fmt.Errorf("failed to compile prefix rules for %s: %w", f.Variant, err)
	}
	if rs.suffixes, err = compileList(f.Suffixes); err != nil {
		return nil, fmt.Errorf("failed to compile suffix rules for %s: %w", f.Variant, err)
	}
	for i, group := range f.Allomorphs {
		g, err := compileList(group)
		if err != nil {
			return nil, fmt.Errorf("failed to compile allomorph group %d for %s: %w", i, f.Variant, err)
		}
		rs.allomorphs = append(rs.allomorphs, g)
	}

	// The fingerprint namespaces cached stems, so it covers every rule.
	canon, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint stemming rules for %s: %w", f.Variant, err)
	}
	rs.fingerprint = utils.HashContent(canon)
	return rs, nil
}

func compileList(defs []RuleDef) ([]rule, error) {
	out := make([]rule, 0, len(defs))
	for _, d := range defs {
		r, err := compileRule(d)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func compileRule(d RuleDef) (rule, error) {
	re, err := regexp2.Compile(d.Pattern, regexp2.None)
	if err != nil {
		return rule{}, fmt.Errorf("pattern %q: %w", d.Pattern, err)
	}
	groups := len(re.GetGroupNumbers()) - 1
	rest, err := parseTemplate(d.Rest, groups)
	if err != nil {
		return rule{}, fmt.Errorf("pattern %q rest: %w", d.Pattern, err)
	}
	if d.Token == "" {
		return rule{}, fmt.Errorf("pattern %q has no token", d.Pattern)
	}
	token, err := parseTemplate(d.Token, groups)
	if err != nil {
		return rule{}, fmt.Errorf("pattern %q token: %w", d.Pattern, err)
	}
	return rule{re: re, rest: rest, token: token}, nil
}

func parseTemplate(tmpl string, groups int) ([]piece, error) {
	var out []piece
	for tmpl != "" {
		i := strings.Index(tmpl, "${")
		if i < 0 {
			out = append(out, piece{lit: tmpl, group: -1})
			break
		}
		if i > 0 {
			out = append(out, piece{lit: tmpl[:i], group: -1})
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unterminated group reference in %q", tmpl)
		}
		n, err := strconv.Atoi(tmpl[i+2 : i+end])
		if err != nil || n < 0 || n > groups {
			return nil, fmt.Errorf("bad group reference %q", tmpl[i:i+end+1])
		}
		out = append(out, piece{group: n})
		tmpl = tmpl[i+end+1:]
	}
	return out, nil
}

func expand(pieces []piece, m *regexp2.Match) string {
	var b strings.Builder
	for _, p := range pieces {
		if p.group < 0 {
			b.WriteString(p.lit)
			continue
		}
		if g := m.GroupByNumber(p.group); g != nil {
			b.WriteString(g.String())
		}
	}
	return b.String()
}

// apply returns the rest and the token when the rule matches word.
func (r rule) apply(word string) (rest, token string, ok bool) {
	m, err := r.re.FindStringMatch(word)
	if err != nil || m == nil {
		return word, "", false
	}
	return expand(r.rest, m), expand(r.token, m), true
}

// first applies the first rule of list that matches.
func first(list []rule, word string) (rest, token string, ok bool) {
	for _, r := range list {
		if rest, token, ok = r.apply(word); ok {
			return rest, token, true
		}
	}
	return word, "", false
}

// Variant is the variant the rules belong to.
func (rs *RuleSet) Variant() models.Variant { return rs.variant }

// Fingerprint hashes the rule source.
func (rs *RuleSet) Fingerprint() string { return rs.fingerprint }

// CountSyllables counts matches of the variant's syllable pattern.
func (rs *RuleSet) CountSyllables(word string) int {
	n := 0
	m, err := rs.syllable.FindStringMatch(word)
	for err == nil && m != nil {
		n++
		m, err = rs.syllable.FindNextMatch(m)
	}
	return n
}
