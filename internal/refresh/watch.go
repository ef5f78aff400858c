package refresh

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 300 * time.Millisecond

// ignoredDirs are the VCS-internal directories whose events never
// trigger a refresh.
var ignoredDirs = map[string]bool{".git": true, ".jj": true}

// isIgnoredPath reports whether path lies entirely within one of
// ignoredDirs, by checking whether any path segment is one of them.
func isIgnoredPath(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if ignoredDirs[seg] {
			return true
		}
	}
	return false
}

// debouncer coalesces rapid-fire calls to Trigger into a single fn
// invocation after delay has elapsed with no further triggers, by
// resetting a time.AfterFunc timer on each new event rather than
// running a ticking goroutine.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fn    func()
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Watcher attaches a recursive fsnotify watch to a repository root and
// calls onForceRefresh, debounced by 300ms, for every event whose path
// is not entirely within .git/.jj. Watcher setup failures are non-fatal
// by design: callers should log and continue relying on periodic
// polling (Start's error return exists only so the caller can log it).
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *debouncer
	done      chan struct{}
}

// Start attaches the watcher and begins forwarding debounced,
// non-ignored events to onForceRefresh. The returned Watcher must be
// stopped with Close.
func Start(root string, onForceRefresh func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addRecursive(fsw, root); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:       fsw,
		debouncer: newDebouncer(watchDebounce, onForceRefresh),
		done:      make(chan struct{}),
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if isIgnoredPath(event.Name) {
				continue
			}
			w.debouncer.Trigger()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("filesystem watch error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher and its pending debounce timer.
func (w *Watcher) Close() error {
	close(w.done)
	w.debouncer.Stop()
	return w.fsw.Close()
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return walkDirs(root, func(dir string) error {
		if isIgnoredPath(dir) {
			return nil
		}
		return fsw.Add(dir)
	})
}
