package cache

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// bucket reads and writes msgpack-encoded records of one type in one
// bbolt bucket. A missing key reads as nil.
type bucket[T any] struct {
	db   *bolt.DB
	name []byte
}

func newBucket[T any](db *bolt.DB, name string) bucket[T] {
	return bucket[T]{db: db, name: []byte(name)}
}

func (b bucket[T]) get(key []byte) (*T, error) {
	var rec *T
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(b.name)
		if bk == nil {
			return fmt.Errorf("bucket %s missing", b.name)
		}
		data := bk.Get(key)
		if data == nil {
			return nil
		}
		rec = new(T)
		return Decode(data, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (b bucket[T]) put(key []byte, rec *T) error {
	return b.putAll(map[string]*T{string(key): rec})
}

// putAll encodes every record first and commits them in one transaction.
func (b bucket[T]) putAll(recs map[string]*T) error {
	if len(recs) == 0 {
		return nil
	}
	encoded := make(map[string][]byte, len(recs))
	for k, rec := range recs {
		data, err := Encode(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", k, err)
		}
		encoded[k] = data
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(b.name)
		if bk == nil {
			return fmt.Errorf("bucket %s missing", b.name)
		}
		for k, data := range encoded {
			if err := bk.Put([]byte(k), data); err != nil {
				return err
			}
		}
		return nil
	})
}
