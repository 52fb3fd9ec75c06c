package testutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/cache"
	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/metrics"
	"github.com/Kush-Singh-26/aksara/builder/services"
)

// CreateTestCache opens a cache in a temporary directory. It is closed
// when the test ends.
func CreateTestCache(t testing.TB) *cache.Manager {
	t.Helper()
	m, err := cache.Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// CreateTestCacheService wraps a temporary cache in a CacheService.
func CreateTestCacheService(t testing.TB) services.CacheService {
	t.Helper()
	m, err := cache.Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	svc := services.NewCacheService(m, nil)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

// CreateTestEngine builds an engine over the embedded catalog and word
// lists.
func CreateTestEngine(t *testing.T, m *metrics.Metrics) services.Engine {
	t.Helper()
	e, err := services.NewEngine(config.DefaultConfig(), afero.NewMemMapFs(), services.EngineOptions{Metrics: m})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

// CreateTestFilesystemWithContent creates a memory filesystem holding files.
func CreateTestFilesystemWithContent(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", path, err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
	return fs
}

// AssertFileExists checks if a file exists in the filesystem
func AssertFileExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Error checking file existence: %v", err)
	}
	if !exists {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Error checking file existence: %v", err)
	}
	if exists {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// ReadFile reads path or fails the test.
func ReadFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
