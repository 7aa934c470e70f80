// Package watcher monitors a single file for changes, preferring fsnotify
// events and falling back to mtime/size polling on filesystems where inotify
// is unreliable (network mounts, some containers).
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/grove/pkg/debug"
)

// DefaultDebounceDuration coalesces editor save bursts into one reload.
const DefaultDebounceDuration = 200 * time.Millisecond

// DefaultPollInterval is used when polling instead of fsnotify.
const DefaultPollInterval = 2 * time.Second

// Debouncer delays a callback until triggers stop arriving for the
// configured duration. Safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
}

// NewDebouncer returns a debouncer with the given duration, or
// DefaultDebounceDuration when d <= 0.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Duration reports the configured debounce window.
func (d *Debouncer) Duration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duration
}

// Trigger schedules fn after the debounce window, resetting any pending
// schedule. Only the last fn passed before the window elapses runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Watcher watches one file and reports changes via OnChange and Changed.
type Watcher struct {
	path      string
	debouncer *Debouncer
	pollEvery time.Duration
	onChange  func()

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
	changed chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration overrides the debounce window.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debouncer = NewDebouncer(d) }
}

// WithPollInterval overrides the polling interval used in fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollEvery = d
		}
	}
}

// WithOnChange registers a callback invoked after each debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// NewWatcher creates a watcher for path. The file must exist.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving watch path %q: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("stat watch target: %w", err)
	}
	w := &Watcher{
		path:      abs,
		debouncer: NewDebouncer(DefaultDebounceDuration),
		pollEvery: DefaultPollInterval,
		changed:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Changed returns a channel that receives a token after each debounced
// change. The channel has capacity one; unconsumed notifications coalesce.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Start begins watching. GROVE_FORCE_POLL=1 skips fsnotify entirely, as
// does an fsnotify initialization failure.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.started = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})

	if os.Getenv("GROVE_FORCE_POLL") == "1" {
		debug.Log("watcher: polling forced via GROVE_FORCE_POLL")
		go w.watchPolling()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		err = fsw.Add(filepath.Dir(w.path))
	}
	if err != nil {
		debug.Log("watcher: fsnotify unavailable (%v), falling back to polling", err)
		go w.watchPolling()
		return nil
	}
	go w.watchFsnotify(fsw)
	return nil
}

// Stop ends watching and cancels any pending debounce. Safe to call once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.started = false
	close(w.stop)
	<-w.done
	w.debouncer.Cancel()
}

func (w *Watcher) notify() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
	if w.onChange != nil {
		w.onChange()
	}
}

func (w *Watcher) watchFsnotify(fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer fsw.Close()

	base := filepath.Base(w.path)
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debug.Log("watcher: event %s on %s", ev.Op, ev.Name)
			w.debouncer.Trigger(w.notify)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			debug.Log("watcher: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) watchPolling() {
	defer close(w.done)

	var lastMod time.Time
	var lastSize int64
	if fi, err := os.Stat(w.path); err == nil {
		lastMod, lastSize = fi.ModTime(), fi.Size()
	}

	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			fi, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if fi.ModTime().Equal(lastMod) && fi.Size() == lastSize {
				continue
			}
			lastMod, lastSize = fi.ModTime(), fi.Size()
			debug.Log("watcher: poll detected change on %s", w.path)
			w.debouncer.Trigger(w.notify)
		}
	}
}
