// Package dictionary holds the root-word sets the stemmer checks against.
package dictionary

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/utils"
)

//go:embed data/*.txt
var embedded embed.FS

// Dictionary is an immutable set of root words. Lookups are exact; callers
// normalize first.
type Dictionary struct {
	words       map[string]struct{}
	fingerprint string
}

// New builds a dictionary from words. Surrounding space is trimmed and
// empty entries are skipped.
func New(words []string) *Dictionary {
	set := make(map[string]struct{}, len(words))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, dup := set[w]; dup {
			continue
		}
		set[w] = struct{}{}
		kept = append(kept, w)
	}
	return &Dictionary{words: set, fingerprint: utils.HashSet(kept)}
}

// IsRootWord reports whether w is in the set.
func (d *Dictionary) IsRootWord(w string) bool {
	_, ok := d.words[w]
	return ok
}

// Len is the number of distinct words.
func (d *Dictionary) Len() int { return len(d.words) }

// Fingerprint hashes the word set independent of load order.
func (d *Dictionary) Fingerprint() string { return d.fingerprint }

// Parse reads one word per line. Blank lines and lines starting with # are
// skipped.
func Parse(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// Load reads a word list from fs. Files ending in .zst are zstd-compressed.
func Load(fs afero.Fs, name string) (*Dictionary, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	words, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list %s: %w", name, err)
	}
	return New(words), nil
}

// Embedded returns the built-in word list for v.
func Embedded(v models.Variant) (*Dictionary, error) {
	f, err := embedded.Open(path.Join("data", string(v)+".txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded word list for %s: %w", v, err)
	}
	defer func() { _ = f.Close() }()
	words, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded word list for %s: %w", v, err)
	}
	return New(words), nil
}

// LoadVariant looks for <variant>.txt.zst, then <variant>.txt, in dir and
// falls back to the embedded list when dir is empty or has neither.
func LoadVariant(fs afero.Fs, dir string, v models.Variant) (*Dictionary, error) {
	if dir != "" {
		for _, name := range []string{string(v) + ".txt.zst", string(v) + ".txt"} {
			p := path.Join(dir, name)
			if _, err := fs.Stat(p); err == nil {
				return Load(fs, p)
			} else if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to stat word list %s: %w", p, err)
			}
		}
	}
	return Embedded(v)
}
