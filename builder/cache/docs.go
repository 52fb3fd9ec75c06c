package cache

import (
	"fmt"
	"time"
)

// GetDocument returns the cached output for key when its source hash still
// matches.
func (m *Manager) GetDocument(key, sourceHash string) ([]byte, bool, error) {
	rec, err := m.docs.get([]byte(key))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read document record %s: %w", key, err)
	}
	if rec == nil || rec.SourceHash != sourceHash {
		return nil, false, nil
	}
	content, err := m.blobs.get(rec.OutputHash, rec.Compressed)
	if err != nil {
		// The record outlived its blob; treat it as a miss.
		return nil, false, nil
	}
	return content, true, nil
}

// PutDocument stores output in the content store and records it under key.
func (m *Manager) PutDocument(key, sourceHash string, output []byte) error {
	hash, compressed, err := m.blobs.put(output)
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", key, err)
	}
	rec := &DocRecord{
		SourceHash: sourceHash,
		OutputHash: hash,
		Size:       int64(len(output)),
		Compressed: compressed,
		CreatedAt:  time.Now().Unix(),
	}
	if err := m.docs.put([]byte(key), rec); err != nil {
		return fmt.Errorf("failed to record document %s: %w", key, err)
	}
	return nil
}
