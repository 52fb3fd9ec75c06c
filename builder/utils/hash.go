package utils

import (
	"encoding/hex"
	"hash"
	"io"
	"sort"

	"github.com/zeebo/blake3"
)

// HashContent computes the BLAKE3 hash of data and returns it as hex.
func HashContent(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashStrings hashes parts in order. Parts are NUL-delimited so that
// ["ab", "c"] and ["a", "bc"] differ.
func HashStrings(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		writeString(h, p)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashSet hashes a set of words independent of their order.
func HashSet(words []string) string {
	sorted := make([]string, len(words))
	copy(sorted, words)
	sort.Strings(sorted)
	return HashStrings(sorted...)
}

// writeString writes a string to the hash
func writeString(h hash.Hash, s string) {
	_, _ = io.WriteString(h, s)
}
