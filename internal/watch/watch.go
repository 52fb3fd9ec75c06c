package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a wrapper around fsnotify.Event
type Event struct {
	Name string
	Op   fsnotify.Op
}

// Watcher calls OnChange once a burst of changes under its paths has
// settled for the debounce duration.
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    []string
	files    map[string]bool
	debounce time.Duration
	logger   *slog.Logger
	OnChange func(Event)

	mu    sync.Mutex
	timer *time.Timer
}

// New watches paths. A directory is watched recursively; a file is watched
// through its parent directory, and only events for that file count.
// Paths that do not exist are skipped.
func New(paths []string, debounce time.Duration, logger *slog.Logger, onChange func(Event)) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]bool),
		debounce: debounce,
		logger:   logger,
		OnChange: onChange,
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			logger.Warn("Not watching missing path", "path", p)
			continue
		}
		w.paths = append(w.paths, p)
		if info.IsDir() {
			w.addTree(p)
			continue
		}
		w.files[filepath.Clean(p)] = true
		if err := fw.Add(filepath.Dir(p)); err != nil {
			logger.Warn("Failed to watch", "path", p, "error", err)
		}
	}
	return w, nil
}

// Paths returns the paths actually being watched.
func (w *Watcher) Paths() []string { return w.paths }

func (w *Watcher) addTree(root string) {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		// Skip hidden directories like .git
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		w.logger.Warn("Failed to watch directory", "path", root, "error", err)
	}
}

// relevant drops events for siblings of a watched file.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	for _, p := range w.paths {
		if !w.files[filepath.Clean(p)] && strings.HasPrefix(name, filepath.Clean(p)) {
			return true
		}
	}
	return false
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("Failed to close file watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Ignore chmod and other meta events
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addTree(event.Name)
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.schedule(Event{Name: event.Name, Op: event.Op})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.OnChange(ev)
	})
}
