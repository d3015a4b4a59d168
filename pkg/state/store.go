// Package state holds the dashboard's single view state. Every mutation
// commits under a lock and then notifies subscribers synchronously, so
// observers never see a partial update.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vanderheijden86/pandemap/pkg/debug"
	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/model"
)

var (
	// ErrUnknownDate is returned by SetDate for a day outside the date list.
	ErrUnknownDate = errors.New("date not in available dates")
	// ErrNoDates is returned by SetDate before the date list is loaded.
	ErrNoDates = errors.New("no dates loaded")
)

// ViewState is a snapshot of everything the views render from.
type ViewState struct {
	CurrentDate string
	Dates       model.DateSet
	Dataset     *model.MapDataset
	Stats       *model.GlobalStats
	Zoom        mapview.Transform
	DarkMode    bool
	MapReady    bool
}

// ChangeKind names what a mutation touched.
type ChangeKind int

const (
	DatesChanged ChangeKind = iota
	DateChanged
	DatasetChanged
	StatsChanged
	ZoomChanged
	ThemeChanged
	MapReadyChanged
)

func (k ChangeKind) String() string {
	switch k {
	case DatesChanged:
		return "dates"
	case DateChanged:
		return "date"
	case DatasetChanged:
		return "dataset"
	case StatsChanged:
		return "stats"
	case ZoomChanged:
		return "zoom"
	case ThemeChanged:
		return "theme"
	case MapReadyChanged:
		return "map-ready"
	default:
		return fmt.Sprintf("change(%d)", int(k))
	}
}

// Change is delivered to subscribers after a mutation commits.
type Change struct {
	Kind  ChangeKind
	State ViewState
}

// Preferences persists the dark-mode flag.
type Preferences interface {
	DarkMode() (bool, error)
	SetDarkMode(bool) error
}

// Store owns the ViewState.
type Store struct {
	mu    sync.Mutex
	state ViewState
	prefs Preferences

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// New creates a store. prefs may be nil, in which case dark mode is not
// persisted.
func New(prefs Preferences) *Store {
	return &Store{
		state: ViewState{Zoom: mapview.Identity},
		prefs: prefs,
		subs:  make(map[int]func(Change)),
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every committed change and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// commit applies mutate under the lock, then notifies.
func (s *Store) commit(kind ChangeKind, mutate func(*ViewState) error) error {
	s.mu.Lock()
	next := s.state
	if err := mutate(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	s.mu.Unlock()

	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	ch := Change{Kind: kind, State: next}
	for _, fn := range fns {
		fn(ch)
	}
	return nil
}

// SetDates installs the date list. A current date that is no longer listed
// is cleared.
func (s *Store) SetDates(dates model.DateSet) {
	_ = s.commit(DatesChanged, func(st *ViewState) error {
		st.Dates = dates
		if st.CurrentDate != "" && !dates.Contains(st.CurrentDate) {
			st.CurrentDate = ""
		}
		return nil
	})
}

// SetDate makes day current. It must be in the date list; callers coerce
// first.
func (s *Store) SetDate(day string) error {
	return s.commit(DateChanged, func(st *ViewState) error {
		if st.Dates.Empty() {
			return ErrNoDates
		}
		if !st.Dates.Contains(day) {
			return fmt.Errorf("%w: %s", ErrUnknownDate, day)
		}
		st.CurrentDate = day
		return nil
	})
}

// SetDataset replaces the current dataset.
func (s *Store) SetDataset(ds *model.MapDataset) {
	_ = s.commit(DatasetChanged, func(st *ViewState) error {
		st.Dataset = ds
		return nil
	})
}

// SetStats replaces the aggregate figures.
func (s *Store) SetStats(gs *model.GlobalStats) {
	_ = s.commit(StatsChanged, func(st *ViewState) error {
		st.Stats = gs
		return nil
	})
}

// SetZoom records the map transform.
func (s *Store) SetZoom(t mapview.Transform) {
	_ = s.commit(ZoomChanged, func(st *ViewState) error {
		st.Zoom = t
		return nil
	})
}

// SetMapReady records whether the map initialised.
func (s *Store) SetMapReady(ready bool) {
	_ = s.commit(MapReadyChanged, func(st *ViewState) error {
		st.MapReady = ready
		return nil
	})
}

// ToggleDarkMode flips dark mode and persists the new value. The toggle
// takes effect even when persisting fails; the error is returned.
func (s *Store) ToggleDarkMode() (bool, error) {
	var on bool
	_ = s.commit(ThemeChanged, func(st *ViewState) error {
		st.DarkMode = !st.DarkMode
		on = st.DarkMode
		return nil
	})
	if s.prefs == nil {
		return on, nil
	}
	if err := s.prefs.SetDarkMode(on); err != nil {
		return on, fmt.Errorf("saving dark mode: %w", err)
	}
	return on, nil
}

// Restore loads the persisted dark-mode flag. A missing value means off.
func (s *Store) Restore() error {
	if s.prefs == nil {
		return nil
	}
	on, err := s.prefs.DarkMode()
	if err != nil {
		debug.Log("restoring preferences: %v", err)
		return fmt.Errorf("loading preferences: %w", err)
	}
	return s.commit(ThemeChanged, func(st *ViewState) error {
		st.DarkMode = on
		return nil
	})
}
