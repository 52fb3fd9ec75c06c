package services

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/catalog"
	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/metrics"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/pegon"
	"github.com/Kush-Singh-26/aksara/builder/stemmer"
)

// EngineOptions carries the optional collaborators of an engine.
type EngineOptions struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Store backs every variant's stemmer; nil keeps results in memory only.
	Store stemmer.Store
}

// engineImpl implements Engine. Variants are built on first use.
type engineImpl struct {
	cat     *catalog.Catalog
	cfg     *config.Config
	fs      afero.Fs
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   stemmer.Store

	// build is newTransliterator outside of tests.
	build func(models.Variant) (*pegon.Transliterator, error)

	mu       sync.Mutex
	variants map[models.Variant]*variantSlot
}

// LoadCatalog reads the catalog named by cfg, or returns the embedded one.
func LoadCatalog(fs afero.Fs, cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default()
	}
	return catalog.Load(fs, cfg.Catalog)
}

// NewEngine loads the catalog named by cfg. Word lists are read from
// cfg.DictionaryDir on fs when it is set.
func NewEngine(cfg *config.Config, fs afero.Fs, opts EngineOptions) (Engine, error) {
	cat, err := LoadCatalog(fs, cfg)
	if err != nil {
		return nil, err
	}
	return NewEngineWithCatalog(cat, cfg, fs, opts), nil
}

// NewEngineWithCatalog creates an engine over an already parsed catalog.
func NewEngineWithCatalog(cat *catalog.Catalog, cfg *config.Config, fs afero.Fs, opts EngineOptions) Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &engineImpl{
		cat:      cat,
		cfg:      cfg,
		fs:       fs,
		logger:   logger,
		metrics:  opts.Metrics,
		store:    opts.Store,
		variants: make(map[models.Variant]*variantSlot),
	}
	e.build = e.newTransliterator
	return e
}

// Warm builds every variant now so that a broken catalog or word list
// fails at startup.
func Warm(e Engine, variants ...models.Variant) error {
	if len(variants) == 0 {
		variants = models.Variants
	}
	for _, v := range variants {
		if _, err := e.Fingerprint(v); err != nil {
			return err
		}
	}
	return nil
}

// variantSlot is a variant being built or already built. done is closed
// once t or err is set.
type variantSlot struct {
	done chan struct{}
	t    *pegon.Transliterator
	err  error
}

func (e *engineImpl) transliterator(v models.Variant) (*pegon.Transliterator, error) {
	if v == "" {
		v = e.cfg.DefaultVariant
	}
	if _, err := models.ParseVariant(string(v)); err != nil {
		return nil, err
	}

	e.mu.Lock()
	slot, ok := e.variants[v]
	if !ok {
		slot = &variantSlot{done: make(chan struct{})}
		e.variants[v] = slot
	}
	e.mu.Unlock()

	if ok {
		<-slot.done
		return slot.t, slot.err
	}

	// Built outside the lock so loaded variants keep serving meanwhile.
	slot.t, slot.err = e.build(v)
	if slot.err != nil {
		e.mu.Lock()
		delete(e.variants, v)
		e.mu.Unlock()
	} else {
		e.logger.Debug("variant loaded", "variant", v, "fingerprint", slot.t.Fingerprint())
	}
	close(slot.done)
	return slot.t, slot.err
}

func (e *engineImpl) newTransliterator(v models.Variant) (*pegon.Transliterator, error) {
	opts := []pegon.Option{
		pegon.WithStrict(e.cfg.StrictStages),
		pegon.WithLogger(e.logger),
		pegon.WithMetrics(e.metrics),
	}
	if e.store != nil {
		opts = append(opts, pegon.WithStore(e.store))
	}
	if e.cfg.DictionaryDir != "" {
		opts = append(opts, pegon.WithDictionaryDir(e.fs, e.cfg.DictionaryDir))
	}
	t, err := pegon.New(e.cat, v, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", v, err)
	}
	return t, nil
}

func (e *engineImpl) Transliterate(text string, v models.Variant, d models.Direction, stem bool) (string, error) {
	t, err := e.transliterator(v)
	if err != nil {
		return "", err
	}
	if stem && (d == models.LatinToPegon || d == "") {
		return t.LatinToPegonStemmedText(text), nil
	}
	return t.Transliterate(text, d), nil
}

func (e *engineImpl) Stem(word string, v models.Variant) (models.StemResult, error) {
	t, err := e.transliterator(v)
	if err != nil {
		return models.StemResult{}, err
	}
	return t.Stem(word), nil
}

func (e *engineImpl) InputEdit(text string, v models.Variant) (string, error) {
	t, err := e.transliterator(v)
	if err != nil {
		return "", err
	}
	return t.IME().InputEdit(text), nil
}

func (e *engineImpl) Fingerprint(v models.Variant) (string, error) {
	t, err := e.transliterator(v)
	if err != nil {
		return "", err
	}
	return t.Fingerprint(), nil
}

func (e *engineImpl) Info() EngineInfo {
	e.mu.Lock()
	loaded := make([]models.Variant, 0, len(e.variants))
	for _, v := range models.Variants {
		slot, ok := e.variants[v]
		if !ok {
			continue
		}
		select {
		case <-slot.done:
			if slot.err == nil {
				loaded = append(loaded, v)
			}
		default:
		}
	}
	e.mu.Unlock()

	return EngineInfo{
		Catalog:        e.cat.Name(),
		Version:        e.cat.Version(),
		Fingerprint:    e.cat.Fingerprint(),
		DefaultVariant: e.cfg.DefaultVariant,
		Loaded:         loaded,
		Metrics:        e.metrics.Snapshot(),
	}
}
