// Package clean implements the clean command: it removes the persistent
// cache, or with -gc prunes it down to what the current word lists and
// rules still use.
package clean

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/cache"
	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/services"
)

// Run parses args and cleans the cache directory named by the config.
func Run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	flags := config.AddFlags(fs)
	gc := fs.Bool("gc", false, "Prune stems of retired word lists and orphaned documents instead of deleting everything")
	dryRun := fs.Bool("n", false, "With -gc, only report what would be deleted")
	stats := fs.Bool("stats", false, "Show cache statistics and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	osFs := afero.NewOsFs()
	cfg, _, err := flags.Load(osFs)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.CacheDir); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stdout, "🧹 No cache at %s, nothing to clean.\n", cfg.CacheDir)
		return nil
	}

	// Opening the database fails while a server or batch run holds it.
	m, err := cache.Open(cfg.CacheDir, time.Second)
	if err != nil {
		return fmt.Errorf("failed to open cache (is it in use?): %w", err)
	}

	switch {
	case *stats:
		defer func() { _ = m.Close() }()
		s, err := m.Stats()
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		PrintStats(stdout, s)
		return nil

	case *gc:
		defer func() { _ = m.Close() }()
		keep, err := services.StemNamespaces(osFs, cfg)
		if err != nil {
			return err
		}
		gcCfg := cache.DefaultGCConfig()
		gcCfg.KeepNamespaces = keep
		gcCfg.DryRun = *dryRun
		gcCfg.MinRunsBetweenGC = 0 // Always run when manually invoked

		if *dryRun {
			fmt.Fprintln(stdout, "🗑️  Running GC (dry run)...")
		} else {
			fmt.Fprintln(stdout, "🗑️  Running garbage collection...")
		}
		result, err := m.RunGC(gcCfg)
		if err != nil {
			return fmt.Errorf("failed to collect garbage: %w", err)
		}
		PrintGC(stdout, result, *dryRun)
		return nil
	}

	if err := m.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	start := time.Now()
	if err := Remove(cfg.CacheDir, stdout); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✅ Cache cleared in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// Remove moves dir aside and deletes it. The rename frees the path at once;
// if it fails the directory is deleted in place.
func Remove(dir string, stdout io.Writer) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil
	}

	tempPath := filepath.Join(filepath.Dir(absPath),
		fmt.Sprintf("%s_deleting_%d", filepath.Base(absPath), time.Now().UnixNano()))

	fmt.Fprintf(stdout, "🧹 Moving '%s' to trash...\n", absPath)
	if err := os.Rename(absPath, tempPath); err != nil {
		fmt.Fprintf(stdout, "⚠️ Rename failed (%v), deleting in place...\n", err)
		tempPath = absPath
	}
	if err := os.RemoveAll(tempPath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", tempPath, err)
	}
	return nil
}

// PrintStats writes cache statistics.
func PrintStats(w io.Writer, s *cache.CacheStats) {
	fmt.Fprintln(w, "📊 Cache Statistics")
	fmt.Fprintln(w, "════════════════════════════════════════")
	fmt.Fprintf(w, "Schema Version:  %d\n", s.SchemaVersion)
	fmt.Fprintf(w, "Stems:           %d in %d namespaces\n", s.TotalStems, s.Namespaces)
	fmt.Fprintf(w, "Documents:       %d\n", s.TotalDocs)
	fmt.Fprintf(w, "Store Size:      %.2f MB\n", float64(s.StoreBytes)/(1024*1024))
	fmt.Fprintf(w, "Run Count:       %d\n", s.RunCount)
	if s.LastGC > 0 {
		fmt.Fprintf(w, "Last GC:         %s\n", time.Unix(s.LastGC, 0).Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "Last GC:         never")
	}
}

// PrintGC writes the result of a GC run.
func PrintGC(w io.Writer, r *cache.GCResult, dryRun bool) {
	fmt.Fprintln(w, "════════════════════════════════════════")
	fmt.Fprintf(w, "Stems:      %d deleted\n", r.DeletedStems)
	fmt.Fprintf(w, "Scanned:    %d blobs\n", r.ScannedBlobs)
	fmt.Fprintf(w, "Live:       %d blobs\n", r.LiveBlobs)
	fmt.Fprintf(w, "Deleted:    %d blobs (%.2f MB)\n", r.DeletedBlobs, float64(r.DeletedBytes)/(1024*1024))
	fmt.Fprintf(w, "Duration:   %v\n", r.Duration)

	if dryRun {
		fmt.Fprintln(w, "\n(No changes made - dry run mode)")
	} else {
		fmt.Fprintln(w, "\n✅ GC complete")
	}
}
