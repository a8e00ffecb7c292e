// Package watch triggers rebuilds when site inputs change or on a schedule.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// DefaultDebounce collapses bursts of editor writes into one rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Options selects what a Watcher observes.
type Options struct {
	// Files are watched individually (descriptor, web manifest, .env).
	Files []string
	// Dirs are watched recursively (content tree).
	Dirs []string
	// Debounce is the quiet period before OnChange fires.
	Debounce time.Duration
	// OnChange is called once per debounced burst with the last changed path.
	OnChange func(ctx context.Context, path string)
}

// Watcher monitors site inputs and triggers debounced rebuilds.
type Watcher struct {
	opts       Options
	files      map[string]struct{}
	dirs       []string
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	stopOnce   sync.Once
	stopChan   chan struct{}
	changeChan chan string
	done       sync.WaitGroup
}

// NewWatcher creates a watcher for opts. Paths are made absolute.
func NewWatcher(opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, fmt.Errorf("watch: OnChange is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		opts:       opts,
		files:      make(map[string]struct{}),
		watcher:    fw,
		stopChan:   make(chan struct{}),
		changeChan: make(chan string, 1),
	}
	for _, f := range opts.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
	}
	for _, d := range opts.Dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", d, err)
		}
		w.dirs = append(w.dirs, abs)
	}
	return w, nil
}

// Start registers every path and begins delivering changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Watch the directory containing each file; editors replace files by rename.
	parents := map[string]struct{}{}
	for f := range w.files {
		parents[filepath.Dir(f)] = struct{}{}
	}
	for dir := range parents {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	for _, root := range w.dirs {
		if err := w.addTree(root); err != nil {
			return err
		}
	}

	slog.Info("Watching site inputs", logfields.Count(len(w.files)+len(w.dirs)))

	w.done.Add(2)
	go w.watchLoop(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop ends watching and waits for the loops to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
		w.done.Wait()
	})
	return err
}

// addTree watches root and every directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", p, err)
		}
		return nil
	})
}

// relevant reports whether a change at path affects the build.
func (w *Watcher) relevant(path string) bool {
	if _, ok := w.files[path]; ok {
		return true
	}
	for _, root := range w.dirs {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.done.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod || !w.relevant(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.mu.Lock()
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
					w.mu.Unlock()
				}
			}
			slog.Debug("Site input changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.trigger(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// trigger records the latest changed path, replacing one still pending.
func (w *Watcher) trigger(path string) {
	for {
		select {
		case w.changeChan <- path:
			return
		default:
		}
		select {
		case <-w.changeChan:
		default:
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.done.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	var last string
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	for {
		select {
		case <-ctx.Done():
			stop()
			return
		case <-w.stopChan:
			stop()
			return
		case path := <-w.changeChan:
			last = path
			stop()
			timer = time.NewTimer(w.opts.Debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			w.opts.OnChange(ctx, last)
		}
	}
}
