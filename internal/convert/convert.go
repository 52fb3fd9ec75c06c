// Package convert implements the doc and batch commands.
package convert

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/cache"
	"github.com/Kush-Singh-26/aksara/builder/document"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/services"
	"github.com/Kush-Singh-26/aksara/builder/utils"
	"github.com/Kush-Singh-26/aksara/internal/app"
)

// ErrTooLarge is returned for documents above the configured size limit.
var ErrTooLarge = errors.New("document too large")

// Extensions are the file extensions batch picks up from directories.
var Extensions = []string{".md", ".markdown"}

// Job is one document of a batch.
type Job struct {
	Path string // source path
	Base string // directory the output layout is relative to
}

// Collect expands inputs into jobs. Directories are walked for Markdown
// files, skipping hidden entries. Files are taken as given. Jobs are
// sorted by path and deduplicated.
func Collect(fsys afero.Fs, inputs []string) ([]Job, error) {
	seen := make(map[string]bool)
	var jobs []Job
	add := func(path, base string) {
		path = filepath.Clean(path)
		if seen[path] {
			return
		}
		seen[path] = true
		jobs = append(jobs, Job{Path: path, Base: base})
	}

	for _, in := range inputs {
		info, err := fsys.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read input %s: %w", in, err)
		}
		if !info.IsDir() {
			add(in, filepath.Dir(in))
			continue
		}
		root := filepath.Clean(in)
		err = afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(info.Name(), ".") {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.IsDir() && isMarkdown(path) {
				add(path, root)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", in, err)
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })
	return jobs, nil
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Batcher converts many documents in parallel.
type Batcher struct {
	Fs          afero.Fs
	Converter   *document.Converter
	Format      document.Format
	OutDir      string
	Workers     int
	MaxFileSize int64 // zero means unlimited
	Logger      *slog.Logger
}

// Summary reports a batch run.
type Summary struct {
	Converted int
	Failed    int
	Duration  time.Duration
}

func (b *Batcher) ext(path string) string {
	if b.Format == document.HTML {
		return ".html"
	}
	return filepath.Ext(path)
}

// Run converts every job. A failing document does not stop the others;
// all failures are returned joined.
func (b *Batcher) Run(ctx context.Context, jobs []Job) (Summary, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	var converted, failed atomic.Int32

	err := utils.RunAll(ctx, b.Workers, jobs, func(_ context.Context, job Job) error {
		if err := b.convert(job); err != nil {
			failed.Add(1)
			logger.Error("Conversion failed", "path", job.Path, "error", err)
			return err
		}
		converted.Add(1)
		return nil
	})
	return Summary{
		Converted: int(converted.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start),
	}, err
}

func (b *Batcher) convert(job Job) error {
	dest, err := utils.OutputPath(job.Base, b.OutDir, job.Path, b.ext(job.Path))
	if err != nil {
		return err
	}
	if filepath.Clean(dest) == filepath.Clean(job.Path) {
		return fmt.Errorf("%s: output would overwrite the source", job.Path)
	}

	src, err := readLimited(b.Fs, job.Path, b.MaxFileSize)
	if err != nil {
		return err
	}
	out, err := b.Converter.Process(job.Path, src, b.Format)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Path, err)
	}
	return utils.WriteFileVFS(b.Fs, dest, out)
}

func readLimited(fsys afero.Fs, path string, limit int64) ([]byte, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf("%s: %w (%d bytes, limit %d)", path, ErrTooLarge, info.Size(), limit)
	}
	return afero.ReadFile(fsys, path)
}

// docFlags are the conversion options shared by doc and batch.
type docFlags struct {
	*app.Flags
	html      bool
	minify    bool
	stem      bool
	direction string
	highlight string
}

func addDocFlags(fs *flag.FlagSet) *docFlags {
	f := &docFlags{Flags: app.AddFlags(fs)}
	fs.BoolVar(&f.html, "html", false, "Render an HTML fragment instead of Markdown")
	fs.BoolVar(&f.minify, "minify", false, "Minify HTML output (also enabled by minifyHTML in the config)")
	fs.BoolVar(&f.stem, "stem", false, "Spell affixes separately from stems")
	fs.StringVar(&f.highlight, "highlight", "", "Chroma style for fenced code in HTML output (e.g. nord)")
	fs.StringVar(&f.direction, "direction", "", "Default direction (latin-to-pegon, pegon-to-latin, pegon-to-standard)")
	return f
}

func (f *docFlags) converter(env *app.Env) (*document.Converter, document.Format, error) {
	d, err := models.ParseDirection(f.direction)
	if err != nil {
		return nil, 0, err
	}
	format := document.Markdown
	if f.html {
		format = document.HTML
	}
	conv := document.NewConverter(env.Engine, document.Options{
		Variant:   env.Variant,
		Direction: d,
		Stem:      f.stem,
		Minify:    f.minify || env.Config.MinifyHTML,
		Highlight: f.highlight,
		Cache:     env.Cache,
		Metrics:   env.Metrics,
		Logger:    env.Logger,
	})
	return conv, format, nil
}

// RunDoc converts one document, read from the named file or from stdin
// when the name is "-" or missing, and writes it to stdout or -o.
func RunDoc(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("doc", flag.ContinueOnError)
	flags := addDocFlags(fs)
	output := fs.String("o", "", "Write the result to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	osFs := afero.NewOsFs()
	env, err := flags.Open(osFs)
	if err != nil {
		return err
	}
	defer env.Close()
	conv, format, err := flags.converter(env)
	if err != nil {
		return err
	}

	var src []byte
	key := ""
	switch name := fs.Arg(0); name {
	case "", "-":
		src, err = io.ReadAll(stdin)
	default:
		src, err = readLimited(osFs, name, int64(env.Config.MaxFileSize))
		key = name
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	out, err := conv.Process(key, src, format)
	if err != nil {
		return err
	}
	if *output != "" {
		return utils.WriteFileVFS(osFs, *output, out)
	}
	_, err = stdout.Write(out)
	return err
}

// RunBatch converts every document under the given paths into -out.
func RunBatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	flags := addDocFlags(fs)
	outDir := fs.String("out", "out", "Output directory")
	workers := fs.Int("workers", 0, "Parallel workers (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("batch: no input files or directories given")
	}

	osFs := afero.NewOsFs()
	env, err := flags.Open(osFs)
	if err != nil {
		return err
	}
	defer env.Close()
	conv, format, err := flags.converter(env)
	if err != nil {
		return err
	}

	jobs, err := Collect(osFs, fs.Args())
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("⚠️  No Markdown documents found.")
		return nil
	}

	lock, err := utils.AcquireLock(*outDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	n := *workers
	if n <= 0 {
		n = env.Config.Workers
	}
	b := &Batcher{
		Fs:          osFs,
		Converter:   conv,
		Format:      format,
		OutDir:      *outDir,
		Workers:     n,
		MaxFileSize: int64(env.Config.MaxFileSize),
		Logger:      env.Logger,
	}

	fmt.Printf("📝 Converting %d documents with %d workers...\n", len(jobs), n)
	sum, err := b.Run(ctx, jobs)
	if sum.Failed > 0 {
		fmt.Printf("❌ %d of %d documents failed.\n", sum.Failed, len(jobs))
	}
	fmt.Printf("✅ Converted %d documents into %s in %v\n", sum.Converted, *outDir, sum.Duration.Round(time.Millisecond))
	if env.Config.NoCache || env.Cache == nil {
		return err
	}
	if stats, serr := env.Cache.Stats(); serr == nil {
		fmt.Printf("📦 Cache: %d documents, %d stems\n", stats.TotalDocs, stats.TotalStems)
	}
	collectGarbage(osFs, env)
	return err
}

// collectGarbage prunes the cache every few batch runs. Failures only warn.
func collectGarbage(fs afero.Fs, env *app.Env) {
	keep, err := services.StemNamespaces(fs, env.Config)
	if err != nil {
		env.Logger.Warn("Skipping cache GC", "error", err)
		return
	}
	gcCfg := cache.DefaultGCConfig()
	gcCfg.KeepNamespaces = keep
	res, err := env.Cache.MaybeGC(gcCfg)
	if err != nil {
		env.Logger.Warn("Cache GC failed", "error", err)
		return
	}
	if res != nil {
		fmt.Printf("🗑️  Cache GC: %d stale stems, %d orphaned documents removed\n", res.DeletedStems, res.DeletedBlobs)
	}
}
