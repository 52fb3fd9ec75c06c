// Package mocks provides mock implementations for testing
package mocks

import (
	"strings"
	"sync"

	"github.com/Kush-Singh-26/aksara/builder/cache"
	"github.com/Kush-Singh-26/aksara/builder/models"
)

// MockCacheService is a mock implementation of services.CacheService
type MockCacheService struct {
	mu        sync.Mutex
	Stems     map[string]models.StemResult // namespace + "\x00" + word
	Documents map[string]MockDocument
	Runs      int
	GCRuns    int
	Closed    bool
	Err       error
	CallCount map[string]int
}

// MockDocument is a stored converted document
type MockDocument struct {
	SourceHash string
	Output     []byte
}

// NewMockCacheService creates a new mock cache service
func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		Stems:     make(map[string]models.StemResult),
		Documents: make(map[string]MockDocument),
		CallCount: make(map[string]int),
	}
}

func (m *MockCacheService) recordCall(method string) {
	if m.CallCount == nil {
		m.CallCount = make(map[string]int)
	}
	m.CallCount[method]++
}

// Calls returns how often method was called
func (m *MockCacheService) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount[method]
}

func stemKey(namespace, word string) string {
	return namespace + "\x00" + word
}

// GetStem returns a stored stem
func (m *MockCacheService) GetStem(namespace, word string) (models.StemResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("GetStem")
	if m.Err != nil {
		return models.StemResult{}, false, m.Err
	}
	r, ok := m.Stems[stemKey(namespace, word)]
	return r, ok, nil
}

// PutStem stores a stem
func (m *MockCacheService) PutStem(namespace, word string, r models.StemResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("PutStem")
	if m.Err != nil {
		return m.Err
	}
	m.Stems[stemKey(namespace, word)] = r
	return nil
}

// StemsIn returns the words stored under namespace
func (m *MockCacheService) StemsIn(namespace string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var words []string
	for k := range m.Stems {
		if ns, w, ok := strings.Cut(k, "\x00"); ok && ns == namespace {
			words = append(words, w)
		}
	}
	return words
}

// GetDocument returns a document when the source hash matches
func (m *MockCacheService) GetDocument(key, sourceHash string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("GetDocument")
	if m.Err != nil {
		return nil, false, m.Err
	}
	d, ok := m.Documents[key]
	if !ok || d.SourceHash != sourceHash {
		return nil, false, nil
	}
	return d.Output, true, nil
}

// PutDocument stores a document
func (m *MockCacheService) PutDocument(key, sourceHash string, output []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("PutDocument")
	if m.Err != nil {
		return m.Err
	}
	m.Documents[key] = MockDocument{SourceHash: sourceHash, Output: output}
	return nil
}

// Stats returns counts derived from the mock's contents
func (m *MockCacheService) Stats() (*cache.CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Stats")
	if m.Err != nil {
		return nil, m.Err
	}
	return &cache.CacheStats{
		TotalStems:    len(m.Stems),
		TotalDocs:     len(m.Documents),
		RunCount:      m.Runs,
		SchemaVersion: cache.SchemaVersion,
	}, nil
}

// IncrementRunCount counts a run
func (m *MockCacheService) IncrementRunCount() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("IncrementRunCount")
	if m.Err != nil {
		return m.Err
	}
	m.Runs++
	return nil
}

// MaybeGC counts a collection once MinRunsBetweenGC runs have passed
func (m *MockCacheService) MaybeGC(cfg cache.GCConfig) (*cache.GCResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("MaybeGC")
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Runs < cfg.MinRunsBetweenGC {
		return nil, nil
	}
	m.GCRuns++
	return &cache.GCResult{}, nil
}

// Close marks the mock closed
func (m *MockCacheService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Close")
	m.Closed = true
	return nil
}
