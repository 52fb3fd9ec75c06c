// Package cache persists stem results and converted documents across runs
// in a bbolt database, with document output in a content-addressed store.
package cache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	bolt "go.etcd.io/bbolt"
)

// DefaultTimeout bounds how long Open waits for the database file lock.
const DefaultTimeout = 10 * time.Second

// Manager owns the database and the document store of one cache
// directory.
type Manager struct {
	db       *bolt.DB
	blobs    *blobStore
	basePath string

	stems bucket[StemRecord]
	docs  bucket[DocRecord]
}

// Open opens or creates the cache in basePath. A zero timeout uses
// DefaultTimeout. Another process holding the database makes Open fail
// once the timeout passes.
func Open(basePath string, timeout time.Duration) (*Manager, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	db, err := bolt.Open(filepath.Join(basePath, "meta.db"), 0644, &bolt.Options{
		Timeout:         timeout,
		FreelistType:    bolt.FreelistArrayType,
		PageSize:        16384,
		InitialMmapSize: 4 * 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	storeDir := filepath.Join(basePath, "store")
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	blobs, err := newBlobStore(afero.NewBasePathFs(afero.NewOsFs(), storeDir))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	m := &Manager{
		db:       db,
		blobs:    blobs,
		basePath: basePath,
		stems:    newBucket[StemRecord](db, BucketStems),
		docs:     newBucket[DocRecord](db, BucketDocs),
	}
	if err := m.migrate(); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return m, nil
}

// Close releases the zstd coders and closes the database.
func (m *Manager) Close() error {
	if m.blobs != nil {
		m.blobs.close()
	}
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// migrate creates missing buckets. A cache written under another schema
// version loses its stems and documents; statistics survive.
func (m *Manager) migrate() error {
	return m.db.Update(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets() {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket([]byte(BucketMeta))
		stored := meta.Get([]byte(KeySchemaVersion))
		if stored != nil && binary.BigEndian.Uint32(stored) == SchemaVersion {
			return nil
		}
		if stored != nil {
			for _, name := range []string{BucketStems, BucketDocs} {
				if err := tx.DeleteBucket([]byte(name)); err != nil {
					return fmt.Errorf("failed to drop bucket %s: %w", name, err)
				}
				if _, err := tx.CreateBucket([]byte(name)); err != nil {
					return fmt.Errorf("failed to create bucket %s: %w", name, err)
				}
			}
		}
		v := make([]byte, 4)
		binary.BigEndian.PutUint32(v, SchemaVersion)
		return meta.Put([]byte(KeySchemaVersion), v)
	})
}

// Path returns the cache directory
func (m *Manager) Path() string {
	return m.basePath
}
