// Package stemmer reduces reversible-Latin words to a dictionary root and
// the affixes stripped from it. One Stemmer serves one variant and is safe
// for concurrent use.
package stemmer

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Kush-Singh-26/aksara/builder/dictionary"
	"github.com/Kush-Singh-26/aksara/builder/metrics"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/utils"
)

// Store persists stem results across processes. Keys are namespaced by the
// stemmer fingerprint so a rule or dictionary change never serves stale
// results.
type Store interface {
	GetStem(namespace, word string) (models.StemResult, bool, error)
	PutStem(namespace, word string, r models.StemResult) error
}

// Options carries the optional collaborators of a Stemmer.
type Options struct {
	Store   Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type call struct {
	done chan struct{}
	res  models.StemResult
}

// Stemmer memoizes results by exact input word. Concurrent calls for the
// same word compute it once.
type Stemmer struct {
	rules       *RuleSet
	dict        *dictionary.Dictionary
	store       Store
	metrics     *metrics.Metrics
	logger      *slog.Logger
	fingerprint string

	probes atomic.Int64

	mu       sync.Mutex
	memo     map[string]models.StemResult
	inflight map[string]*call
}

// New creates a stemmer over rs and dict.
func New(rs *RuleSet, dict *dictionary.Dictionary, opts Options) *Stemmer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Stemmer{
		rules:       rs,
		dict:        dict,
		store:       opts.Store,
		metrics:     opts.Metrics,
		logger:      logger,
		fingerprint: utils.HashStrings(rs.Fingerprint(), dict.Fingerprint()),
		memo:        make(map[string]models.StemResult),
		inflight:    make(map[string]*call),
	}
}

// Variant is the variant the stemmer's rules belong to.
func (s *Stemmer) Variant() models.Variant { return s.rules.variant }

// Fingerprint identifies the rules and dictionary behind the stemmer.
func (s *Stemmer) Fingerprint() string { return s.fingerprint }

// Probes counts dictionary and allomorph probes made so far. A memoized
// call adds none.
func (s *Stemmer) Probes() int64 { return s.probes.Load() }

// Stem splits word into its root and affixes. Words of two syllables or
// fewer, and words no strategy can reduce to a root, come back unchanged
// with an empty affix sequence.
func (s *Stemmer) Stem(word string) models.StemResult {
	s.metrics.IncStems()

	s.mu.Lock()
	if r, ok := s.memo[word]; ok {
		s.mu.Unlock()
		s.metrics.IncMemoHit()
		return clone(r)
	}
	if c, ok := s.inflight[word]; ok {
		s.mu.Unlock()
		<-c.done
		s.metrics.IncMemoHit()
		return clone(c.res)
	}
	c := &call{done: make(chan struct{})}
	s.inflight[word] = c
	s.mu.Unlock()

	s.metrics.IncMemoMiss()
	c.res = s.load(word)

	s.mu.Lock()
	s.memo[word] = c.res
	delete(s.inflight, word)
	s.mu.Unlock()
	close(c.done)

	return clone(c.res)
}

func (s *Stemmer) load(word string) models.StemResult {
	if s.store != nil {
		r, ok, err := s.store.GetStem(s.fingerprint, word)
		if err != nil {
			s.logger.Warn("stem store read failed", "word", word, "error", err)
		} else if ok {
			s.metrics.IncStoreHit()
			return r
		}
	}

	r := s.compute(word)

	if s.store != nil {
		if err := s.store.PutStem(s.fingerprint, word, r); err != nil {
			s.logger.Warn("stem store write failed", "word", word, "error", err)
		}
	}
	return r
}

func (s *Stemmer) compute(word string) models.StemResult {
	if s.rules.CountSyllables(word) <= 2 || s.rules.passthrough {
		return notFound(word)
	}

	st := newState(s.rules, s.dict, word)
	defer func() {
		s.probes.Add(st.probes)
		s.metrics.AddProbes(st.probes)
	}()

	if st.isRoot(word) {
		return notFound(word)
	}
	for _, strategy := range Strategies {
		st.run(strategy)
		if st.found {
			return st.result()
		}
	}
	return notFound(word)
}

// RunStrategy runs one strategy alone, without the memo or the dictionary
// check on the whole word.
func (s *Stemmer) RunStrategy(word string, strategy Strategy) models.StemResult {
	if s.rules.CountSyllables(word) <= 2 || s.rules.passthrough {
		return notFound(word)
	}
	st := newState(s.rules, s.dict, word)
	defer func() { s.probes.Add(st.probes) }()
	st.run(strategy)
	if !st.found {
		return notFound(word)
	}
	return st.result()
}

// Reset drops every memoized result.
func (s *Stemmer) Reset() {
	s.mu.Lock()
	s.memo = make(map[string]models.StemResult)
	s.mu.Unlock()
}

func clone(r models.StemResult) models.StemResult {
	r.AffixSequence = append([]string{}, r.AffixSequence...)
	return r
}
