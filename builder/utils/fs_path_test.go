package utils

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestSafeRel(t *testing.T) {
	tests := []struct {
		base, target string
		want         string
		err          bool
	}{
		{"docs", "docs/a.md", "a.md", false},
		{"docs", "docs/sub/b.md", "sub/b.md", false},
		{"docs", "docs/..notes.md", "..notes.md", false},
		{"docs", "other/a.md", "", true},
		{"docs/sub", "docs", "", true},
	}
	for _, tt := range tests {
		got, err := SafeRel(tt.base, tt.target)
		if tt.err {
			if err == nil {
				t.Errorf("SafeRel(%q, %q) = %q, want error", tt.base, tt.target, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("SafeRel(%q, %q) = %q, %v, want %q", tt.base, tt.target, got, err, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	got, err := OutputPath("in", "out", filepath.Join("in", "bab", "satu.md"), ".html")
	if err != nil {
		t.Fatalf("OutputPath failed: %v", err)
	}
	if want := filepath.Join("out", "bab", "satu.html"); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
	if _, err := OutputPath("in", "out", "elsewhere/x.md", ".html"); err == nil {
		t.Error("expected an error for a path outside the input directory")
	}
}

func TestWriteFileVFS(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("out", "deep", "file.txt")
	if err := WriteFileVFS(fs, path, []byte("isi")); err != nil {
		t.Fatalf("WriteFileVFS failed: %v", err)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil || string(data) != "isi" {
		t.Errorf("read back %q, %v", data, err)
	}
}

func TestNormalizeCacheKey(t *testing.T) {
	if got := NormalizeCacheKey(filepath.Join("a", "b", "..", "c.md")); got != "a/c.md" {
		t.Errorf("NormalizeCacheKey = %q, want a/c.md", got)
	}
}
