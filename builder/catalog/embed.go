package catalog

import (
	_ "embed"
	"sync"
)

//go:embed data/pegon.yaml
var defaultSource []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog. It is parsed once and shared, so
// all callers also share its compiled patterns.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultSource)
	})
	return defaultCatalog, defaultErr
}

// DefaultSource returns a copy of the embedded catalog file.
func DefaultSource() []byte {
	return append([]byte(nil), defaultSource...)
}
