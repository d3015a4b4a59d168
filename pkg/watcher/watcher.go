// Package watcher reports edits to the config file. It listens to fsnotify
// events on the file's directory, or polls when fsnotify is unavailable,
// and only reports a change when the file's content actually differs.
package watcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often polling mode re-reads the file.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Mode is how a started watcher learns about edits.
type Mode string

const (
	ModeIdle   Mode = ""
	ModeNotify Mode = "fsnotify"
	ModePoll   Mode = "poll"
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the quiet period before a change is checked.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the polling interval.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnChange sets the callback run after the content changed.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback for removals and watch errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll polls even when fsnotify works.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) { w.forcePoll = force }
}

// snapshot is what the watcher last saw on disk.
type snapshot struct {
	exists bool
	digest [sha256.Size]byte
}

func read(path string) (snapshot, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		return snapshot{exists: true, digest: sha256.Sum256(raw)}, nil
	case os.IsNotExist(err):
		return snapshot{}, nil
	case os.IsPermission(err):
		return snapshot{}, ErrPermission
	default:
		return snapshot{}, err
	}
}

// Watcher watches one file.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool
	onChange     func()
	onError      func(error)

	debouncer *Debouncer
	changed   chan struct{}

	mu     sync.Mutex
	mode   Mode
	last   snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher for path. The file need not exist yet.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onChange:     func() {},
		onError:      func(error) {},
		changed:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start records the file's current content and begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode != ModeIdle {
		return ErrAlreadyStarted
	}

	snap, err := read(w.path)
	if err != nil {
		return err
	}
	w.last = snap

	var fsw *fsnotify.Watcher
	if !w.forcePoll && !envBool("PANDEMAP_FORCE_POLL") {
		fsw = newDirWatcher(filepath.Dir(w.path))
	}
	w.mode = ModePoll
	if fsw != nil {
		w.mode = ModeNotify
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, fsw, w.done)
	return nil
}

// newDirWatcher watches dir so rename-over saves are seen; nil when
// fsnotify cannot be used.
func newDirWatcher(dir string) *fsnotify.Watcher {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil
	}
	return fsw
}

// Stop ends watching and waits for the loop to exit. The Changed channel
// stays open.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.mode == ModeIdle {
		w.mu.Unlock()
		return
	}
	w.mode = ModeIdle
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
	w.debouncer.Cancel()
}

// Mode reports how the watcher is running, ModeIdle when stopped.
func (w *Watcher) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// IsPolling reports whether the watcher fell back to (or was forced into)
// polling.
func (w *Watcher) IsPolling() bool { return w.Mode() == ModePoll }

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool { return w.Mode() != ModeIdle }

// Changed receives after each content change.
func (w *Watcher) Changed() <-chan struct{} { return w.changed }

// Path returns the absolute watched path.
func (w *Watcher) Path() string { return w.path }

// PollInterval returns the polling interval.
func (w *Watcher) PollInterval() time.Duration { return w.pollInterval }

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
		tick   <-chan time.Time
	)
	if fsw != nil {
		defer fsw.Close()
		events, errs = fsw.Events, fsw.Errors
	} else {
		t := time.NewTicker(w.pollInterval)
		defer t.Stop()
		tick = t.C
	}
	name := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name || ev.Op == fsnotify.Chmod {
				continue
			}
			w.debouncer.Trigger(func() { w.check(ctx) })
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		case <-tick:
			// Polling compares directly; the ticker already spaces reads.
			w.check(ctx)
		}
	}
}

// check re-reads the file and reports a removal or a content change.
func (w *Watcher) check(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	snap, err := read(w.path)
	if err != nil {
		w.onError(err)
		return
	}

	w.mu.Lock()
	prev := w.last
	w.last = snap
	w.mu.Unlock()

	switch {
	case prev.exists && !snap.exists:
		w.onError(ErrFileRemoved)
	case snap.exists && snap != prev:
		w.onChange()
		select {
		case w.changed <- struct{}{}:
		default:
		}
	}
}
