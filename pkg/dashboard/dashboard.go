// Package dashboard sequences start-up: backend health, preference
// restore, map initialisation and the initial date load. Each phase after
// the health probe fails on its own without blocking the others.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/pandemap/pkg/debug"
	"github.com/vanderheijden86/pandemap/pkg/geo"
	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/model"
	"github.com/vanderheijden86/pandemap/pkg/state"
	"github.com/vanderheijden86/pandemap/pkg/timeline"
)

// MapInitError means the map could not be set up. It disables the map for
// the rest of the session; the timeline and the figures keep working.
type MapInitError struct {
	Err error
}

func (e *MapInitError) Error() string {
	return fmt.Sprintf("map unavailable: %v", e.Err)
}

func (e *MapInitError) Unwrap() error { return e.Err }

// Backend is what the dashboard needs from the API client.
type Backend interface {
	Health(ctx context.Context) (model.Health, error)
	Timeseries(ctx context.Context) (model.DateSet, error)
	timeline.Fetcher
}

// GeometryLoader loads the world shapes.
type GeometryLoader func(ctx context.Context) (*geo.World, error)

// Dashboard wires the store, the timeline and the map renderer together.
type Dashboard struct {
	backend   Backend
	store     *state.Store
	timeline  *timeline.Controller
	loadWorld GeometryLoader

	transition time.Duration
	now        func() time.Time

	initMu sync.Mutex // serialises InitMap

	mu       sync.Mutex
	renderer *mapview.Renderer
	mapErr   error
	width    float64
	height   float64
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithTransition sets the map recolour duration.
func WithTransition(d time.Duration) Option {
	return func(db *Dashboard) {
		db.transition = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(db *Dashboard) {
		db.now = now
	}
}

// WithViewport sets the initial map size.
func WithViewport(w, h float64) Option {
	return func(db *Dashboard) {
		db.width, db.height = w, h
	}
}

// New creates a dashboard. The renderer follows dataset and theme changes
// in store from the moment it exists.
func New(backend Backend, store *state.Store, loadWorld GeometryLoader, opts ...Option) *Dashboard {
	db := &Dashboard{
		backend:    backend,
		store:      store,
		timeline:   timeline.New(store, backend),
		loadWorld:  loadWorld,
		transition: mapview.DefaultTransition,
		now:        time.Now,
		width:      960,
		height:     500,
	}
	for _, opt := range opts {
		opt(db)
	}
	store.Subscribe(db.onChange)
	return db
}

// Store returns the view state store.
func (db *Dashboard) Store() *state.Store { return db.store }

// Timeline returns the timeline controller.
func (db *Dashboard) Timeline() *timeline.Controller { return db.timeline }

func (db *Dashboard) onChange(c state.Change) {
	r := db.Renderer()
	if r == nil {
		return
	}
	switch c.Kind {
	case state.DatasetChanged:
		r.SetDataset(c.State.Dataset, db.now())
	case state.ThemeChanged:
		r.SetDark(c.State.DarkMode)
	}
}

// CheckHealth probes the backend. The client raises the persistent banner
// on failure; callers must stop initialising.
func (db *Dashboard) CheckHealth(ctx context.Context) (model.Health, error) {
	h, err := db.backend.Health(ctx)
	if err != nil {
		debug.Log("health check failed: %v", err)
		return h, err
	}
	return h, nil
}

// RestorePreferences applies the stored dark-mode flag.
func (db *Dashboard) RestorePreferences() error {
	return db.store.Restore()
}

// Renderer returns the map renderer, or nil before InitMap succeeds.
func (db *Dashboard) Renderer() *mapview.Renderer {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.renderer
}

// MapErr returns the map initialisation error, if any.
func (db *Dashboard) MapErr() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.mapErr
}

// InitMap loads the geometry and builds the renderer. It runs once: later
// calls return the same renderer, or the same *MapInitError.
func (db *Dashboard) InitMap(ctx context.Context) (*mapview.Renderer, error) {
	db.initMu.Lock()
	defer db.initMu.Unlock()

	db.mu.Lock()
	r, err := db.renderer, db.mapErr
	w, h := db.width, db.height
	db.mu.Unlock()
	if r != nil || err != nil {
		return r, err
	}

	world, err := db.loadWorld(ctx)
	if err != nil {
		mapErr := &MapInitError{Err: err}
		db.mu.Lock()
		db.mapErr = mapErr
		db.mu.Unlock()
		debug.Log("map init: %v", err)
		db.store.SetMapReady(false)
		return nil, mapErr
	}
	r = mapview.New(world, w, h, mapview.WithTransition(db.transition))
	db.mu.Lock()
	db.renderer = r
	db.mu.Unlock()

	st := db.store.State()
	r.SetDark(st.DarkMode)
	if st.Dataset != nil {
		r.SetDataset(st.Dataset, db.now())
	}
	db.store.SetMapReady(true)
	return r, nil
}

// Resize rescales the existing map to a new viewport. Geometry is not
// reloaded.
func (db *Dashboard) Resize(w, h float64) {
	db.mu.Lock()
	db.width, db.height = w, h
	r := db.renderer
	db.mu.Unlock()
	if r != nil {
		r.Resize(w, h)
		db.store.SetZoom(r.Transform())
	}
}

// LoadDates fetches the available dates into the store.
func (db *Dashboard) LoadDates(ctx context.Context) (model.DateSet, error) {
	dates, err := db.backend.Timeseries(ctx)
	if err != nil {
		return dates, err
	}
	if dates.Empty() {
		return dates, timeline.ErrNoDates
	}
	db.store.SetDates(dates)
	return dates, nil
}

// SelectLatest selects the last available date.
func (db *Dashboard) SelectLatest(ctx context.Context) (timeline.Result, error) {
	latest, ok := db.timeline.LatestDate()
	if !ok {
		return timeline.Result{}, timeline.ErrNoDates
	}
	return db.timeline.SelectDate(ctx, latest)
}

// Report records the outcome of each start-up phase.
type Report struct {
	Health    model.Health
	HealthErr error
	PrefsErr  error
	DatesErr  error
	DataErr   error
	MapErr    error
}

// Halted reports whether start-up stopped at the health probe.
func (r Report) Halted() bool { return r.HealthErr != nil }

// Bootstrap runs the health probe and, if it passes, restores preferences
// and then loads the dates and initial data alongside the map.
func (db *Dashboard) Bootstrap(ctx context.Context) Report {
	defer debug.LogEnterExit("dashboard.Bootstrap")()

	var rep Report
	rep.Health, rep.HealthErr = db.CheckHealth(ctx)
	if rep.HealthErr != nil {
		return rep
	}
	if err := db.RestorePreferences(); err != nil {
		rep.PrefsErr = err
	}

	var g errgroup.Group
	g.Go(func() error {
		if _, err := db.LoadDates(ctx); err != nil {
			rep.DatesErr = err
			return nil
		}
		if _, err := db.SelectLatest(ctx); err != nil {
			rep.DataErr = err
		}
		return nil
	})
	g.Go(func() error {
		_, rep.MapErr = db.InitMap(ctx)
		return nil
	})
	_ = g.Wait()
	return rep
}
