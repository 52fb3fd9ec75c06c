package cache

import (
	"fmt"
	"time"

	"github.com/Kush-Singh-26/aksara/builder/models"
)

// GetStem looks up a stored stem result. It satisfies stemmer.Store.
func (m *Manager) GetStem(namespace, word string) (models.StemResult, bool, error) {
	rec, err := m.stems.get(stemKey(namespace, word))
	if err != nil {
		return models.StemResult{}, false, fmt.Errorf("failed to read stem %q: %w", word, err)
	}
	if rec == nil {
		return models.StemResult{}, false, nil
	}
	if rec.Result.AffixSequence == nil {
		rec.Result.AffixSequence = []string{}
	}
	return rec.Result, true, nil
}

// PutStem stores one stem result.
func (m *Manager) PutStem(namespace, word string, r models.StemResult) error {
	rec := &StemRecord{Result: r, CreatedAt: time.Now().Unix()}
	if err := m.stems.put(stemKey(namespace, word), rec); err != nil {
		return fmt.Errorf("failed to write stem %q: %w", word, err)
	}
	return nil
}

// PutStems stores several results of one namespace in a single transaction.
func (m *Manager) PutStems(namespace string, results map[string]models.StemResult) error {
	now := time.Now().Unix()
	items := make(map[string]*StemRecord, len(results))
	for word, r := range results {
		items[string(stemKey(namespace, word))] = &StemRecord{Result: r, CreatedAt: now}
	}
	if err := m.stems.putAll(items); err != nil {
		return fmt.Errorf("failed to write %d stems: %w", len(results), err)
	}
	return nil
}
