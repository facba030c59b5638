package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/logger"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 500 * time.Millisecond

// ChangeCallback is called after a watched file changed. It receives the
// path of the last changed file in the debounce window.
type ChangeCallback func(path string) error

// Watcher watches the config and model files for changes and triggers
// regeneration callbacks. Callbacks never run concurrently.
//
// Parent directories are watched rather than the files themselves, so
// editors that save by rename-and-replace keep triggering events.
type Watcher struct {
	files          map[string]bool
	dirs           map[string]bool
	watcher        *fsnotify.Watcher
	callbacks      []ChangeCallback
	mu             sync.Mutex
	runMu          sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	lastChanged    string
	done           chan struct{}
}

// NewWatcher creates a watcher for the given files
func NewWatcher(paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		files:          make(map[string]bool),
		dirs:           make(map[string]bool),
		watcher:        fw,
		debouncePeriod: DefaultDebounce,
		done:           make(chan struct{}),
	}
	if err := w.Watch(paths...); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Watch replaces the set of watched files. Calls must not overlap; change
// callbacks never do, so a callback may retarget the watcher, e.g. when an
// edited config points at another model.
func (w *Watcher) Watch(paths ...string) error {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve %s", p)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	w.mu.Lock()
	current := w.dirs
	w.mu.Unlock()

	for dir := range dirs {
		if current[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch directory %s", dir)
		}
	}
	for dir := range current {
		if !dirs[dir] {
			if err := w.watcher.Remove(dir); err != nil {
				logger.Debugw("Watcher failed to release directory",
					logger.FieldFile, dir,
					logger.FieldError, err)
			}
		}
	}

	w.mu.Lock()
	w.files, w.dirs = files, dirs
	w.mu.Unlock()
	return nil
}

// watching reports whether path is one of the watched files
func (w *Watcher) watching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[path]
}

// SetDebounce overrides the debounce period (used by tests)
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debouncePeriod = d
}

// OnChange registers a callback to be called after a watched file changed
func (w *Watcher) OnChange(callback ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

// watchLoop monitors file system events
func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.watching(abs) {
				continue
			}

			logger.Debugw("Watcher detected change",
				logger.FieldFile, event.Name,
				logger.FieldOperation, event.Op.String())
			w.scheduleRun(abs)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Watcher error",
				logger.FieldError, err)

		case <-w.done:
			return
		}
	}
}

// scheduleRun debounces rapid file changes and triggers the callbacks
func (w *Watcher) scheduleRun(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastChanged = path
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.run)
}

// run calls all callbacks, continuing past failures
func (w *Watcher) run() {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	w.mu.Lock()
	path := w.lastChanged
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, callback := range callbacks {
		if err := callback(path); err != nil {
			logger.Warnw("Watch callback error",
				logger.FieldFile, path,
				logger.FieldError, err)
		}
	}
}

// Stop stops watching for changes
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()

	select {
	case <-w.done:
	default:
		close(w.done)
	}
	return w.watcher.Close()
}
