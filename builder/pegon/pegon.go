// Package pegon ties one variant's frozen schemes to its stemmer. It is the
// entry point the server, the CLI and the document converter use.
package pegon

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/catalog"
	"github.com/Kush-Singh-26/aksara/builder/dictionary"
	"github.com/Kush-Singh-26/aksara/builder/metrics"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/scheme"
	"github.com/Kush-Singh-26/aksara/builder/stemmer"
)

// Option configures a Transliterator.
type Option func(*config)

type config struct {
	strict  bool
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   stemmer.Store
	dict    *dictionary.Dictionary
	dictFs  afero.Fs
	dictDir string
	rules   *stemmer.RuleSet
}

// WithStrict fails construction on any stage re-entry.
func WithStrict(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

// WithLogger sets the logger for build warnings and cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics counts transliterations and stems into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithStore backs the stemmer's memo with a persistent store.
func WithStore(s stemmer.Store) Option {
	return func(c *config) { c.store = s }
}

// WithDictionary replaces the variant's root word list.
func WithDictionary(d *dictionary.Dictionary) Option {
	return func(c *config) { c.dict = d }
}

// WithDictionaryDir loads the root word list from dir on fs, falling back
// to the embedded list when the directory has none for the variant.
func WithDictionaryDir(fs afero.Fs, dir string) Option {
	return func(c *config) {
		c.dictFs = fs
		c.dictDir = dir
	}
}

// WithRules replaces the variant's stemming rules.
func WithRules(rs *stemmer.RuleSet) Option {
	return func(c *config) { c.rules = rs }
}

// syllablePattern counts vowels of reversible Latin, including long,
// hyphenated and marked vowels.
const syllablePattern = "(a-A|-aA|-a|-i|-u|aA|e_u|a_i|a_u|\\^e|`[aiueoAIUEO]|[aiueoAIUEO])"

var syllables = regexp2.MustCompile(syllablePattern, regexp2.None)

// Transliterator converts text of one variant. It is safe for concurrent
// use.
type Transliterator struct {
	variant     models.Variant
	fingerprint string
	schemes     *catalog.Schemes
	ime         *scheme.IME
	stemmer     *stemmer.Stemmer
	affixes     *affixWriter
	metrics     *metrics.Metrics
}

// New builds the schemes of v from cat and a stemmer for v.
func New(cat *catalog.Catalog, v models.Variant, opts ...Option) (*Transliterator, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	schemes, err := cat.Build(v, catalog.BuildOptions{Strict: cfg.strict, Logger: cfg.logger})
	if err != nil {
		return nil, err
	}

	rs := cfg.rules
	if rs == nil {
		if rs, err = stemmer.LoadRules(v); err != nil {
			return nil, err
		}
	}
	if rs.Variant() != v {
		return nil, fmt.Errorf("failed to create %s transliterator: stemming rules are for %s", v, rs.Variant())
	}

	dict := cfg.dict
	if dict == nil {
		if cfg.dictFs != nil {
			dict, err = dictionary.LoadVariant(cfg.dictFs, cfg.dictDir, v)
		} else {
			dict, err = dictionary.Embedded(v)
		}
		if err != nil {
			return nil, err
		}
	}

	var affixes *affixWriter
	if def, ok := cat.Affixes(v); ok {
		if affixes, err = newAffixWriter(cat, v, def); err != nil {
			return nil, fmt.Errorf("failed to create %s transliterator: %w", v, err)
		}
	}

	st := stemmer.New(rs, dict, stemmer.Options{Store: cfg.store, Metrics: cfg.metrics, Logger: cfg.logger})
	return &Transliterator{
		variant:     v,
		fingerprint: cat.Fingerprint() + "/" + st.Fingerprint(),
		schemes:     schemes,
		ime:         scheme.NewIME(schemes.IME),
		stemmer:     st,
		affixes:     affixes,
		metrics:     cfg.metrics,
	}, nil
}

// Variant is the variant the transliterator was built for.
func (t *Transliterator) Variant() models.Variant { return t.variant }

// Fingerprint identifies the catalog, rules and dictionary in use.
func (t *Transliterator) Fingerprint() string { return t.fingerprint }

// Schemes returns the frozen schemes.
func (t *Transliterator) Schemes() *catalog.Schemes { return t.schemes }

// Stemmer returns the variant's stemmer.
func (t *Transliterator) Stemmer() *stemmer.Stemmer { return t.stemmer }

// LatinToPegon converts reversible Latin to Pegon.
func (t *Transliterator) LatinToPegon(text string) string {
	t.metrics.IncTransliterations()
	return t.schemes.Forward.Transliterate(text)
}

// PegonToLatin converts Pegon to reversible Latin.
func (t *Transliterator) PegonToLatin(text string) string {
	t.metrics.IncTransliterations()
	return t.schemes.Inverse.Transliterate(text)
}

// ToStandardLatin converts Pegon to standard Latin spelling, dropping the
// reversibility markers.
func (t *Transliterator) ToStandardLatin(text string) string {
	t.metrics.IncTransliterations()
	return t.schemes.Standard.Transliterate(t.schemes.Inverse.Transliterate(text))
}

// Transliterate runs text in direction d.
func (t *Transliterator) Transliterate(text string, d models.Direction) string {
	switch d {
	case models.PegonToLatin:
		return t.PegonToLatin(text)
	case models.PegonToStandard:
		return t.ToStandardLatin(text)
	}
	return t.LatinToPegon(text)
}

// Stem splits word into its root and affixes.
func (t *Transliterator) Stem(word string) models.StemResult {
	return t.stemmer.Stem(word)
}

// IME returns the input method of the variant.
func (t *Transliterator) IME() *scheme.IME { return t.ime }

// CountSyllables counts the vowels of a reversible-Latin word.
func CountSyllables(word string) int {
	n := 0
	m, _ := syllables.FindStringMatch(word)
	for m != nil {
		n++
		m, _ = syllables.FindNextMatch(m)
	}
	return n
}

// LatinToPegonStemmed stems word and writes its root and affixes
// separately, so an affix is spelled the way the variant spells affixes
// rather than as part of the root.
func (t *Transliterator) LatinToPegonStemmed(word string) string {
	return t.TransliterateStemResult(t.Stem(word))
}

// TransliterateStemResult writes a stem result as prefixes, root and
// suffixes. A result without affixes is plain forward transliteration of
// its base word.
func (t *Transliterator) TransliterateStemResult(r models.StemResult) string {
	if !r.Found() || t.affixes == nil {
		return t.LatinToPegon(r.BaseWord)
	}
	prefix, suffix := t.affixes.write(r)
	return prefix + t.LatinToPegon(surfaceBase(r)) + suffix
}

// LatinToPegonStemmedText stems every word of text. Whitespace and the
// punctuation around each word are kept and written with the forward
// scheme.
func (t *Transliterator) LatinToPegonStemmedText(text string) string {
	var b strings.Builder
	b.Grow(len(text) * 2)
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		b.WriteString(t.stemmedToken(text[start:end]))
		start = -1
	}
	for i, r := range text {
		if unicode.IsSpace(r) {
			flush(i)
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(text))
	return b.String()
}

const wordPunctuation = ".,?!\"():;،؛؟"

func (t *Transliterator) stemmedToken(token string) string {
	word := strings.Trim(token, wordPunctuation)
	if word == "" {
		return t.LatinToPegon(token)
	}
	i := strings.Index(token, word)
	lead, trail := token[:i], token[i+len(word):]
	out := t.LatinToPegonStemmed(word)
	if lead != "" {
		out = t.LatinToPegon(lead) + out
	}
	if trail != "" {
		out += t.LatinToPegon(trail)
	}
	return out
}

// surfaceBase puts an infix back into the base word after its first
// letter, so the root is written as it appears in the text.
func surfaceBase(r models.StemResult) string {
	for _, a := range r.AffixSequence {
		if models.IsInfix(a) && r.BaseWord != "" {
			return r.BaseWord[:1] + strings.Trim(a, "-") + r.BaseWord[1:]
		}
	}
	return r.BaseWord
}
