package mocks

import (
	"strings"
	"sync"

	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/services"
)

// MockEngine is a mock implementation of services.Engine. Transliterate
// wraps the input in the direction name so tests can see which path ran.
type MockEngine struct {
	mu    sync.Mutex
	Stems map[string]models.StemResult
	Edits map[string]string
	Print string
	Err   error
	// LastVariant and LastStem record the most recent Transliterate call
	LastVariant models.Variant
	LastStem    bool
	CallCount   map[string]int
}

// NewMockEngine creates a new mock engine
func NewMockEngine() *MockEngine {
	return &MockEngine{
		Stems:     make(map[string]models.StemResult),
		Edits:     make(map[string]string),
		Print:     "mock",
		CallCount: make(map[string]int),
	}
}

func (m *MockEngine) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CallCount == nil {
		m.CallCount = make(map[string]int)
	}
	m.CallCount[method]++
}

// Calls returns how often method was called
func (m *MockEngine) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount[method]
}

func (m *MockEngine) Transliterate(text string, v models.Variant, d models.Direction, stem bool) (string, error) {
	m.recordCall("Transliterate")
	m.mu.Lock()
	m.LastVariant, m.LastStem = v, stem
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if d == "" {
		d = models.LatinToPegon
	}
	tag := string(d)
	if stem {
		tag += "+stem"
	}
	return "[" + tag + "]" + strings.ToUpper(text), nil
}

func (m *MockEngine) Stem(word string, v models.Variant) (models.StemResult, error) {
	m.recordCall("Stem")
	if m.Err != nil {
		return models.StemResult{}, m.Err
	}
	if r, ok := m.Stems[word]; ok {
		return r, nil
	}
	return models.StemResult{BaseWord: word, AffixSequence: []string{}}, nil
}

func (m *MockEngine) InputEdit(text string, v models.Variant) (string, error) {
	m.recordCall("InputEdit")
	if m.Err != nil {
		return "", m.Err
	}
	if out, ok := m.Edits[text]; ok {
		return out, nil
	}
	return text, nil
}

func (m *MockEngine) Fingerprint(v models.Variant) (string, error) {
	m.recordCall("Fingerprint")
	if m.Err != nil {
		return "", m.Err
	}
	return m.Print + "/" + string(v), nil
}

func (m *MockEngine) Info() services.EngineInfo {
	m.recordCall("Info")
	return services.EngineInfo{
		Catalog:        "mock",
		Version:        1,
		Fingerprint:    m.Print,
		DefaultVariant: models.DefaultVariant,
		Loaded:         []models.Variant{},
	}
}
