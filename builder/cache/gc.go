package cache

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// GCConfig controls garbage collection behavior
type GCConfig struct {
	// KeepNamespaces lists the stemmer fingerprints still in use. Stems
	// under any other namespace are deleted. Empty keeps every stem.
	KeepNamespaces   []string
	MinRunsBetweenGC int  // Minimum runs between automatic GC runs
	DryRun           bool // If true, only report what would be deleted
}

// DefaultGCConfig returns sensible defaults
func DefaultGCConfig() GCConfig {
	return GCConfig{MinRunsBetweenGC: 10}
}

// GCResult contains statistics from a GC run
type GCResult struct {
	DeletedStems int
	DeletedBlobs int
	DeletedBytes int64
	ScannedBlobs int
	LiveBlobs    int
	Duration     time.Duration
}

// ShouldRunGC reports whether enough runs have passed since the last GC.
func (m *Manager) ShouldRunGC(cfg GCConfig) (bool, string) {
	var runsSinceGC int
	_ = m.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket([]byte(BucketStats)).Get([]byte(keyRunsSinceGC)); data != nil {
			runsSinceGC = int(binary.BigEndian.Uint32(data))
		}
		return nil
	})
	if runsSinceGC < cfg.MinRunsBetweenGC {
		return false, fmt.Sprintf("only %d runs since last GC (min: %d)", runsSinceGC, cfg.MinRunsBetweenGC)
	}
	return true, fmt.Sprintf("%d runs since last GC", runsSinceGC)
}

// RunGC deletes stems of retired namespaces and document blobs no record
// points at.
func (m *Manager) RunGC(cfg GCConfig) (*GCResult, error) {
	start := time.Now()
	result := &GCResult{}

	keep := make(map[string]bool, len(cfg.KeepNamespaces))
	for _, ns := range cfg.KeepNamespaces {
		keep[ns] = true
	}

	var staleStems [][]byte
	live := make(map[string]bool)
	err := m.db.View(func(tx *bolt.Tx) error {
		if len(keep) > 0 {
			err := tx.Bucket([]byte(BucketStems)).ForEach(func(k, _ []byte) error {
				if ns, _ := splitStemKey(k); !keep[ns] {
					staleStems = append(staleStems, append([]byte(nil), k...))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return tx.Bucket([]byte(BucketDocs)).ForEach(func(_, v []byte) error {
			var rec DocRecord
			if err := Decode(v, &rec); err != nil {
				return nil // Skip corrupt entries
			}
			live[rec.OutputHash] = true
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan live entries: %w", err)
	}
	result.LiveBlobs = len(live)

	blobs, err := m.blobs.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list document blobs: %w", err)
	}
	result.ScannedBlobs = len(blobs)

	if cfg.DryRun {
		result.DeletedStems = len(staleStems)
		for _, b := range blobs {
			if !live[b.Hash] {
				result.DeletedBlobs++
				result.DeletedBytes += b.Size
			}
		}
		result.Duration = time.Since(start)
		return result, nil
	}

	for _, b := range blobs {
		if live[b.Hash] {
			continue
		}
		m.blobs.remove(b.Hash)
		result.DeletedBlobs++
		result.DeletedBytes += b.Size
	}

	err = m.db.Update(func(tx *bolt.Tx) error {
		stems := tx.Bucket([]byte(BucketStems))
		for _, k := range staleStems {
			if err := stems.Delete(k); err != nil {
				return err
			}
		}

		statsBucket := tx.Bucket([]byte(BucketStats))
		if err := statsBucket.Put([]byte(keyRunsSinceGC), make([]byte, 4)); err != nil {
			return err
		}
		gcTime := make([]byte, 8)
		binary.BigEndian.PutUint64(gcTime, uint64(time.Now().Unix()))
		return statsBucket.Put([]byte(KeyLastGC), gcTime)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete stale stems: %w", err)
	}
	result.DeletedStems = len(staleStems)

	result.Duration = time.Since(start)
	return result, nil
}

// Stats returns current cache statistics
func (m *Manager) Stats() (*CacheStats, error) {
	stats := &CacheStats{SchemaVersion: SchemaVersion}

	err := m.db.View(func(tx *bolt.Tx) error {
		stats.TotalDocs = tx.Bucket([]byte(BucketDocs)).Stats().KeyN

		namespaces := make(map[string]bool)
		err := tx.Bucket([]byte(BucketStems)).ForEach(func(k, _ []byte) error {
			stats.TotalStems++
			ns, _ := splitStemKey(k)
			namespaces[ns] = true
			return nil
		})
		if err != nil {
			return err
		}
		stats.Namespaces = len(namespaces)

		statsBucket := tx.Bucket([]byte(BucketStats))
		if data := statsBucket.Get([]byte(KeyRunCount)); data != nil {
			stats.RunCount = int(binary.BigEndian.Uint32(data))
		}
		if data := statsBucket.Get([]byte(KeyLastGC)); data != nil {
			stats.LastGC = int64(binary.BigEndian.Uint64(data))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.StoreBytes, _ = m.blobs.size()
	return stats, nil
}

// IncrementRunCount increments the run counter
func (m *Manager) IncrementRunCount() error {
	return m.db.Update(func(tx *bolt.Tx) error {
		statsBucket := tx.Bucket([]byte(BucketStats))
		for _, key := range []string{KeyRunCount, keyRunsSinceGC} {
			n := uint32(1)
			if data := statsBucket.Get([]byte(key)); data != nil {
				n = binary.BigEndian.Uint32(data) + 1
			}
			buf := make([]byte, 4)
			binary.BigEndian.PutUint32(buf, n)
			if err := statsBucket.Put([]byte(key), buf); err != nil {
				return err
			}
		}
		return nil
	})
}
