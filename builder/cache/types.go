package cache

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Kush-Singh-26/aksara/builder/models"
)

// StemRecord stores one stem result
type StemRecord struct {
	Result    models.StemResult `msgpack:"result"`
	CreatedAt int64             `msgpack:"created_at"`
}

// DocRecord points at the converted output of one source document
type DocRecord struct {
	SourceHash string `msgpack:"source_hash"`
	OutputHash string `msgpack:"output_hash"`
	Size       int64  `msgpack:"size"`
	Compressed bool   `msgpack:"compressed"`
	CreatedAt  int64  `msgpack:"created_at"`
}

// CacheStats holds runtime statistics
type CacheStats struct {
	TotalStems    int   `msgpack:"total_stems"`
	TotalDocs     int   `msgpack:"total_docs"`
	Namespaces    int   `msgpack:"namespaces"`
	StoreBytes    int64 `msgpack:"store_bytes"`
	LastGC        int64 `msgpack:"last_gc"`
	RunCount      int   `msgpack:"run_count"`
	SchemaVersion int   `msgpack:"schema_version"`
}

// Documents under RawThreshold bytes are stored raw, those under
// FastZstdMax with the fastest zstd level.
const (
	RawThreshold  = 8 * 1024
	FastZstdMax   = 128 * 1024
	SchemaVersion = 1
)

// Encode serializes a value to msgpack bytes
func Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes msgpack bytes to a value
func Decode(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// stemKey joins namespace and word with a NUL so neither can forge the other.
func stemKey(namespace, word string) []byte {
	key := make([]byte, 0, len(namespace)+1+len(word))
	key = append(key, namespace...)
	key = append(key, 0)
	return append(key, word...)
}

func splitStemKey(key []byte) (namespace, word string) {
	i := bytes.IndexByte(key, 0)
	if i < 0 {
		return "", string(key)
	}
	return string(key[:i]), string(key[i+1:])
}
