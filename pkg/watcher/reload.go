package watcher

import (
	"github.com/vanderheijden86/pandemap/pkg/config"
	"github.com/vanderheijden86/pandemap/pkg/debug"
)

// Reload is the outcome of re-reading a config file.
type Reload struct {
	Config config.Config
	Err    error
}

// ConfigReloader re-reads a config file whenever it changes. Only the most
// recent outcome is kept for the receiver.
type ConfigReloader struct {
	w       *Watcher
	load    func(path string) (config.Config, error)
	updates chan Reload
}

// WatchConfig starts watching path. load defaults to config.LoadFrom.
func WatchConfig(path string, load func(string) (config.Config, error), opts ...WatcherOption) (*ConfigReloader, error) {
	if load == nil {
		load = config.LoadFrom
	}
	r := &ConfigReloader{load: load, updates: make(chan Reload, 1)}
	opts = append(opts,
		WithOnChange(r.reload),
		WithOnError(func(err error) {
			debug.Log("config watcher: %v", err)
		}),
	)
	w, err := NewWatcher(path, opts...)
	if err != nil {
		return nil, err
	}
	r.w = w
	if err := w.Start(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ConfigReloader) reload() {
	cfg, err := r.load(r.w.Path())
	if err == nil {
		err = cfg.Validate()
	}
	debug.LogIf(err != nil, "config reload failed: %v", err)

	out := Reload{Config: cfg, Err: err}
	for {
		select {
		case r.updates <- out:
			return
		default:
		}
		// Drop the unread older outcome.
		select {
		case <-r.updates:
		default:
		}
	}
}

// Updates delivers reload outcomes.
func (r *ConfigReloader) Updates() <-chan Reload { return r.updates }

// Path returns the watched config path.
func (r *ConfigReloader) Path() string { return r.w.Path() }

// Stop stops watching.
func (r *ConfigReloader) Stop() { r.w.Stop() }
