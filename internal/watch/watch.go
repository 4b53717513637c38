// Package watch re-runs a handler for source files shortly after they change on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/codalotl/codepal/internal/health"
	"github.com/codalotl/codepal/internal/workspace"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 750 * time.Millisecond

// Handler is called with the absolute path of a changed file. Handler errors are logged and do not stop the watcher.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	// Debounce is how long a file must be quiet after its last write before the handler runs.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher watches a directory tree. Directories that Walk would skip are not watched, and only reviewable files trigger the handler. Handlers run one at a time,
// on the goroutine that called Run.
type Watcher struct {
	filter   *workspace.Filter
	fs       *fsnotify.Watcher
	handle   Handler
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time // path -> last change
	health.Ctx
}

// New starts watching root. Watches are in place when New returns; call Run to process events.
func New(root string, handle Handler, opts Options) (*Watcher, error) {
	filter, err := workspace.NewFilter(root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		filter:   filter,
		fs:       fsw,
		handle:   handle,
		debounce: debounce,
		pending:  map[string]time.Time{},
		Ctx:      health.NewCtx(logger),
	}
	if err := w.addRecursive(filter.Root()); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addRecursive watches dir and its subdirectories. Only a failure on dir itself is returned.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.filter.SkipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			if path == dir {
				return err
			}
			w.Log("watch.add_failed", "path", path, "err", err.Error())
		}
		return nil
	})
}

// Run processes events until ctx is done, then releases the watches. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	tick := max(w.debounce/4, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.Log("watch.error", "err", err.Error())

		case now := <-ticker.C:
			for _, path := range w.due(now) {
				if ctx.Err() != nil {
					return nil
				}
				if err := w.handle(ctx, path); err != nil {
					_ = w.LogWrappedErr("watch.handler", err, "path", path)
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.filter.SkipDir(event.Name) {
				_ = w.addRecursive(event.Name)
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			w.mu.Lock()
			delete(w.pending, event.Name)
			w.mu.Unlock()
		}
		return
	}
	if !w.filter.Reviewable(event.Name) {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// due removes and returns the pending paths that have been quiet for the debounce interval, sorted.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for path, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(out)
	return out
}
