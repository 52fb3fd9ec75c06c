package convert

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/cache"
	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/document"
	"github.com/Kush-Singh-26/aksara/builder/services/mocks"
	"github.com/Kush-Singh-26/aksara/builder/testutil"
	"github.com/Kush-Singh-26/aksara/internal/app"
)

func TestCollect(t *testing.T) {
	fs := testutil.CreateTestFilesystemWithContent(t, map[string]string{
		"docs/a.md":           "a",
		"docs/sub/b.markdown": "b",
		"docs/notes.txt":      "skip",
		"docs/.drafts/c.md":   "hidden",
		"docs/.hidden.md":     "hidden",
		"single/readme.txt":   "taken as given",
		"single/other/d.md":   "d",
	})

	jobs, err := Collect(fs, []string{"docs", "single/readme.txt", "docs/a.md"})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	want := []Job{
		{Path: "docs/a.md", Base: "docs"},
		{Path: filepath.Join("docs", "sub", "b.markdown"), Base: "docs"},
		{Path: filepath.Join("single", "readme.txt"), Base: "single"},
	}
	if len(jobs) != len(want) {
		t.Fatalf("Collect = %v, want %v", jobs, want)
	}
	for i := range want {
		if jobs[i] != want[i] {
			t.Errorf("job %d = %+v, want %+v", i, jobs[i], want[i])
		}
	}
}

func TestCollectMissingInput(t *testing.T) {
	fs := testutil.CreateTestFilesystemWithContent(t, nil)
	if _, err := Collect(fs, []string{"nowhere"}); err == nil {
		t.Error("expected an error for a missing input")
	}
}

func TestBatcherRun(t *testing.T) {
	tests := []struct {
		name   string
		format document.Format
		dest   string
		want   string
	}{
		{"markdown", document.Markdown, "out/sub/b.md", "# [latin-to-pegon]OMAH\n"},
		{"html", document.HTML, "out/sub/b.html", "<h1>[latin-to-pegon]OMAH</h1>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testutil.CreateTestFilesystemWithContent(t, map[string]string{
				"in/a.md":     "kita\n",
				"in/sub/b.md": "# omah\n",
			})
			jobs, err := Collect(fs, []string{"in"})
			if err != nil {
				t.Fatal(err)
			}
			b := &Batcher{
				Fs:        fs,
				Converter: document.NewConverter(mocks.NewMockEngine(), document.Options{}),
				Format:    tt.format,
				OutDir:    "out",
				Workers:   4,
			}

			sum, err := b.Run(context.Background(), jobs)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if sum.Converted != 2 || sum.Failed != 0 {
				t.Errorf("summary = %+v, want 2 converted", sum)
			}
			got := testutil.ReadFile(t, fs, tt.dest)
			if !strings.Contains(got, tt.want) {
				t.Errorf("%s = %q, want it to contain %q", tt.dest, got, tt.want)
			}
		})
	}
}

func TestBatcherPartialFailure(t *testing.T) {
	fs := testutil.CreateTestFilesystemWithContent(t, map[string]string{
		"in/small.md": "kita\n",
		"in/large.md": strings.Repeat("kita ", 100),
	})
	jobs, err := Collect(fs, []string{"in"})
	if err != nil {
		t.Fatal(err)
	}
	b := &Batcher{
		Fs:          fs,
		Converter:   document.NewConverter(mocks.NewMockEngine(), document.Options{}),
		OutDir:      "out",
		Workers:     2,
		MaxFileSize: 64,
	}

	sum, err := b.Run(context.Background(), jobs)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Run error = %v, want ErrTooLarge", err)
	}
	if sum.Converted != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want 1 converted and 1 failed", sum)
	}
	testutil.AssertFileExists(t, fs, "out/small.md")
	testutil.AssertFileNotExists(t, fs, "out/large.md")
}

func TestBatcherRefusesOverwrite(t *testing.T) {
	fs := testutil.CreateTestFilesystemWithContent(t, map[string]string{"in/a.md": "kita\n"})
	b := &Batcher{
		Fs:        fs,
		Converter: document.NewConverter(mocks.NewMockEngine(), document.Options{}),
		OutDir:    "in",
		Workers:   1,
	}
	if _, err := b.Run(context.Background(), []Job{{Path: "in/a.md", Base: "in"}}); err == nil {
		t.Fatal("expected an error when the output would overwrite the source")
	}
	if got := testutil.ReadFile(t, fs, "in/a.md"); got != "kita\n" {
		t.Errorf("source changed to %q", got)
	}
}

func TestBatcherUsesCache(t *testing.T) {
	fs := testutil.CreateTestFilesystemWithContent(t, map[string]string{"in/a.md": "kita\n"})
	engine := mocks.NewMockEngine()
	store := mocks.NewMockCacheService()
	b := &Batcher{
		Fs:        fs,
		Converter: document.NewConverter(engine, document.Options{Cache: store}),
		OutDir:    "out",
		Workers:   1,
	}
	jobs := []Job{{Path: "in/a.md", Base: "in"}}

	for i := 0; i < 2; i++ {
		if _, err := b.Run(context.Background(), jobs); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}
	if n := engine.Calls("Transliterate"); n != 1 {
		t.Errorf("Transliterate called %d times, want 1 with a warm cache", n)
	}
}

func TestCollectGarbageEveryFewRuns(t *testing.T) {
	c := mocks.NewMockCacheService()
	env := &app.Env{Config: config.DefaultConfig(), Cache: c, Logger: slog.Default()}

	collectGarbage(afero.NewMemMapFs(), env)
	if c.GCRuns != 0 {
		t.Errorf("GC ran after %d runs", c.Runs)
	}
	c.Runs = cache.DefaultGCConfig().MinRunsBetweenGC
	collectGarbage(afero.NewMemMapFs(), env)
	if c.GCRuns != 1 {
		t.Errorf("GCRuns = %d, want 1", c.GCRuns)
	}
}

func TestRunDoc(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "aksara.yaml")

	var out bytes.Buffer
	err := RunDoc([]string{"-config", missing, "-no-cache"}, strings.NewReader("kita\n\n`kita`\n"), &out)
	if err != nil {
		t.Fatalf("RunDoc failed: %v", err)
	}
	if want := "كِيتَا\n\n`kita`\n"; out.String() != want {
		t.Errorf("RunDoc = %q, want %q", out.String(), want)
	}
}

func TestRunDocToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.md")
	dest := filepath.Join(dir, "out", "in.html")
	if err := os.WriteFile(in, []byte("kita\n"), 0644); err != nil {
		t.Fatal(err)
	}

	args := []string{"-config", filepath.Join(dir, "aksara.yaml"), "-no-cache", "-html", "-o", dest, in}
	if err := RunDoc(args, strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatalf("RunDoc failed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(data), `<article dir="rtl"`) || !strings.Contains(string(data), "كِيتَا") {
		t.Errorf("unexpected HTML:\n%s", data)
	}
}

func TestRunDocBadDirection(t *testing.T) {
	args := []string{"-config", filepath.Join(t.TempDir(), "aksara.yaml"), "-no-cache", "-direction", "sideways"}
	if err := RunDoc(args, strings.NewReader("kita"), &bytes.Buffer{}); err == nil {
		t.Error("expected an error for an unknown direction")
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(in, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "a.md"), []byte("kita\n"), 0644); err != nil {
		t.Fatal(err)
	}

	args := []string{"-config", filepath.Join(dir, "aksara.yaml"), "-no-cache", "-out", out, in}
	if err := RunBatch(context.Background(), args); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "a.md"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "كِيتَا\n" {
		t.Errorf("a.md = %q", data)
	}
	if _, err := os.Stat(filepath.Join(out, ".aksara.lock")); !os.IsNotExist(err) {
		t.Errorf("lock file left behind: %v", err)
	}
}

func TestRunBatchNoInputs(t *testing.T) {
	if err := RunBatch(context.Background(), []string{"-no-cache"}); err == nil {
		t.Error("expected an error without inputs")
	}
}
