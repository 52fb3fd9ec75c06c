package cache

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/Kush-Singh-26/aksara/builder/models"
)

// createTestCache creates a temporary cache for testing
func createTestCache(t *testing.T) (*Manager, func()) {
	t.Helper()
	m, err := Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	return m, func() {
		_ = m.Close()
	}
}

func sampleStem() models.StemResult {
	return models.StemResult{BaseWord: "tulis", AffixSequence: []string{"di-", "-an"}}
}

func TestOpen_NewCache(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")

	m, err := Open(cacheDir, 0)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	}()

	if _, err := os.Stat(filepath.Join(cacheDir, "meta.db")); err != nil {
		t.Errorf("meta.db should exist: %v", err)
	}
	if m.Path() != cacheDir {
		t.Errorf("Path() = %q, want %q", m.Path(), cacheDir)
	}
	stats, err := m.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.SchemaVersion != SchemaVersion || stats.TotalStems != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestSchemaUpgrade(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = m.PutStem("ns", "tulisan", sampleStem())
	_ = m.IncrementRunCount()

	// Pretend the cache was written by an older schema.
	err = m.db.Update(func(tx *bolt.Tx) error {
		v := make([]byte, 4)
		binary.BigEndian.PutUint32(v, SchemaVersion+1)
		return tx.Bucket([]byte(BucketMeta)).Put([]byte(KeySchemaVersion), v)
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = m.Close()

	m, err = Open(dir, 0)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = m.Close() }()

	if _, ok, _ := m.GetStem("ns", "tulisan"); ok {
		t.Error("stems of another schema version should be dropped")
	}
	stats, _ := m.Stats()
	if stats.RunCount != 1 {
		t.Errorf("RunCount = %d, want 1 to survive the upgrade", stats.RunCount)
	}

	// Reopening at the current version keeps everything.
	_ = m.PutStem("ns", "tulisan", sampleStem())
	_ = m.Close()
	m, err = Open(dir, 0)
	if err != nil {
		t.Fatalf("second reopen failed: %v", err)
	}
	if _, ok, _ := m.GetStem("ns", "tulisan"); !ok {
		t.Error("stem lost on reopen")
	}
}

func TestStemRoundTrip(t *testing.T) {
	m, cleanup := createTestCache(t)
	defer cleanup()

	if _, ok, err := m.GetStem("ns", "ditulisan"); err != nil || ok {
		t.Fatalf("GetStem on empty cache = %v, %v", ok, err)
	}
	if err := m.PutStem("ns", "ditulisan", sampleStem()); err != nil {
		t.Fatalf("PutStem failed: %v", err)
	}
	got, ok, err := m.GetStem("ns", "ditulisan")
	if err != nil || !ok {
		t.Fatalf("GetStem = %v, %v", ok, err)
	}
	if !got.Equal(sampleStem()) {
		t.Errorf("GetStem = %+v, want %+v", got, sampleStem())
	}
	if _, ok, _ := m.GetStem("other", "ditulisan"); ok {
		t.Error("namespaces should not share entries")
	}

	if err := m.PutStem("ns", "buku", models.StemResult{BaseWord: "buku"}); err != nil {
		t.Fatalf("PutStem failed: %v", err)
	}
	notFound, _, _ := m.GetStem("ns", "buku")
	if notFound.AffixSequence == nil {
		t.Error("an empty affix sequence should come back non-nil")
	}
}

func TestPutStems(t *testing.T) {
	m, cleanup := createTestCache(t)
	defer cleanup()

	batch := map[string]models.StemResult{
		"tulisan": {BaseWord: "tulis", AffixSequence: []string{"-an"}},
		"omahe":   {BaseWord: "omah", AffixSequence: []string{"-e"}},
	}
	if err := m.PutStems("ns", batch); err != nil {
		t.Fatalf("PutStems failed: %v", err)
	}
	for word, want := range batch {
		got, ok, err := m.GetStem("ns", word)
		if err != nil || !ok || !got.Equal(want) {
			t.Errorf("GetStem(%q) = %+v, %v, %v", word, got, ok, err)
		}
	}
	if err := m.PutStems("ns", nil); err != nil {
		t.Errorf("empty PutStems failed: %v", err)
	}
}

func TestDocuments(t *testing.T) {
	m, cleanup := createTestCache(t)
	defer cleanup()

	small := []byte("<p>كِيتَا</p>")
	large := bytes.Repeat([]byte("سَايَا مَاكَن "), 2000)

	tests := []struct {
		name   string
		output []byte
	}{
		{"small raw", small},
		{"large compressed", large},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "posts/" + tt.name + ".md"
			if err := m.PutDocument(key, "src-1", tt.output); err != nil {
				t.Fatalf("PutDocument failed: %v", err)
			}
			got, ok, err := m.GetDocument(key, "src-1")
			if err != nil || !ok {
				t.Fatalf("GetDocument = %v, %v", ok, err)
			}
			if !bytes.Equal(got, tt.output) {
				t.Error("document content changed in the store")
			}
			if _, ok, _ := m.GetDocument(key, "src-2"); ok {
				t.Error("a changed source should miss")
			}
		})
	}
}

func TestRunGC(t *testing.T) {
	m, cleanup := createTestCache(t)
	defer cleanup()

	_ = m.PutStem("old", "tulisan", sampleStem())
	_ = m.PutStem("current", "tulisan", sampleStem())
	_ = m.PutDocument("a.md", "v1", []byte("first output"))
	_ = m.PutDocument("a.md", "v2", []byte("second output"))

	dry, err := m.RunGC(GCConfig{KeepNamespaces: []string{"current"}, DryRun: true})
	if err != nil {
		t.Fatalf("dry RunGC failed: %v", err)
	}
	if dry.DeletedStems != 1 || dry.DeletedBlobs != 1 {
		t.Errorf("dry run = %+v, want 1 stem and 1 blob", dry)
	}
	if _, ok, _ := m.GetStem("old", "tulisan"); !ok {
		t.Error("dry run should not delete")
	}

	res, err := m.RunGC(GCConfig{KeepNamespaces: []string{"current"}})
	if err != nil {
		t.Fatalf("RunGC failed: %v", err)
	}
	if res.DeletedStems != 1 || res.DeletedBlobs != 1 || res.LiveBlobs != 1 {
		t.Errorf("RunGC = %+v", res)
	}
	if _, ok, _ := m.GetStem("old", "tulisan"); ok {
		t.Error("stale namespace should be deleted")
	}
	if _, ok, _ := m.GetStem("current", "tulisan"); !ok {
		t.Error("kept namespace should survive")
	}
	if got, ok, _ := m.GetDocument("a.md", "v2"); !ok || string(got) != "second output" {
		t.Errorf("live document lost: %q, %v", got, ok)
	}

	stats, _ := m.Stats()
	if stats.LastGC == 0 {
		t.Error("LastGC should be recorded")
	}
}

func TestShouldRunGC(t *testing.T) {
	m, cleanup := createTestCache(t)
	defer cleanup()

	cfg := GCConfig{MinRunsBetweenGC: 2}
	if ok, _ := m.ShouldRunGC(cfg); ok {
		t.Error("GC should wait for runs")
	}
	_ = m.IncrementRunCount()
	_ = m.IncrementRunCount()
	ok, reason := m.ShouldRunGC(cfg)
	if !ok || !strings.Contains(reason, "2 runs") {
		t.Errorf("ShouldRunGC = %v, %q", ok, reason)
	}
	stats, _ := m.Stats()
	if stats.RunCount != 2 {
		t.Errorf("RunCount = %d, want 2", stats.RunCount)
	}
}

func TestStemAdapter(t *testing.T) {
	m, cleanup := createTestCache(t)
	defer cleanup()

	a := NewStemAdapter(m, nil, 2)
	var wg sync.WaitGroup
	words := []string{"tulisan", "omahe", "dipangan", "kitabe", "sawahan"}
	for _, w := range words {
		wg.Add(1)
		go func(w string) {
			defer wg.Done()
			_ = a.PutStem("ns", w, models.StemResult{BaseWord: w[:3], AffixSequence: []string{"-x"}})
		}(w)
	}
	wg.Wait()

	if r, ok, _ := a.GetStem("ns", "omahe"); !ok || r.BaseWord != "oma" {
		t.Errorf("adapter GetStem = %+v, %v", r, ok)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	_ = a.Close()

	for _, w := range words {
		if _, ok, err := m.GetStem("ns", w); err != nil || !ok {
			t.Errorf("%s not persisted: %v, %v", w, ok, err)
		}
	}
	if err := a.PutStem("ns", "late", sampleStem()); err != nil {
		t.Errorf("PutStem after Close should be a no-op, got %v", err)
	}
}

func TestStemKey(t *testing.T) {
	ns, word := splitStemKey(stemKey("abc", "tulis"))
	if ns != "abc" || word != "tulis" {
		t.Errorf("splitStemKey = %q, %q", ns, word)
	}
	if bytes.Equal(stemKey("ab", "ctulis"), stemKey("abc", "tulis")) {
		t.Error("keys of different namespaces must differ")
	}
}
