package services

import (
	"github.com/Kush-Singh-26/aksara/builder/cache"
	"github.com/Kush-Singh-26/aksara/builder/metrics"
	"github.com/Kush-Singh-26/aksara/builder/models"
)

// Engine is what the server, the CLI and the document converter need from
// the transliteration engine
type Engine interface {
	// Transliterate runs text in direction d. With stem set, Latin input is
	// stemmed word by word and affixes are spelled separately.
	Transliterate(text string, v models.Variant, d models.Direction, stem bool) (string, error)
	Stem(word string, v models.Variant) (models.StemResult, error)
	InputEdit(text string, v models.Variant) (string, error)
	// Fingerprint identifies the catalog, rules and dictionary of v
	Fingerprint(v models.Variant) (string, error)
	Info() EngineInfo
}

// EngineInfo is reported by /healthz and the info command
type EngineInfo struct {
	Catalog        string           `json:"catalog"`
	Version        int              `json:"version"`
	Fingerprint    string           `json:"fingerprint"`
	DefaultVariant models.Variant   `json:"defaultVariant"`
	Loaded         []models.Variant `json:"loaded"`
	Metrics        metrics.Snapshot `json:"metrics"`
}

// CacheService abstracts the persistent cache
type CacheService interface {
	// Stem store, namespaced by stemmer fingerprint
	GetStem(namespace, word string) (models.StemResult, bool, error)
	PutStem(namespace, word string, r models.StemResult) error

	// Converted documents, keyed by path and checked against the source hash
	GetDocument(key, sourceHash string) ([]byte, bool, error)
	PutDocument(key, sourceHash string, output []byte) error

	// Lifecycle
	Stats() (*cache.CacheStats, error)
	IncrementRunCount() error
	MaybeGC(cfg cache.GCConfig) (*cache.GCResult, error)
	Close() error
}
