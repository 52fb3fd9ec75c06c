package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// NormalizeCacheKey converts a file path to a cache key with forward
// slashes, so keys match across platforms.
func NormalizeCacheKey(path string) string {
	return strings.ReplaceAll(filepath.Clean(path), "\\", "/")
}

// SafeRel returns target relative to base, rejecting results that escape
// base.
func SafeRel(base, target string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(target))
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path traversal detected: %s escapes %s", target, base)
	}
	return rel, nil
}

// OutputPath mirrors path from inDir into outDir and swaps its extension
// for ext.
func OutputPath(inDir, outDir, path, ext string) (string, error) {
	rel, err := SafeRel(inDir, path)
	if err != nil {
		return "", err
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ext
	return filepath.Join(outDir, filepath.FromSlash(rel)), nil
}

// WriteFileVFS writes data to path on fs, creating parent directories.
func WriteFileVFS(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}
