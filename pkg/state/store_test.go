package state

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/pandemap/pkg/config"
	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/model"
)

func TestSetDateValidates(t *testing.T) {
	s := New(nil)
	if err := s.SetDate("2021-01-01"); !errors.Is(err, ErrNoDates) {
		t.Fatalf("SetDate before dates = %v, want ErrNoDates", err)
	}
	s.SetDates(model.NewDateSet([]string{"2021-01-01", "2021-01-10"}))
	if err := s.SetDate("2021-01-03"); !errors.Is(err, ErrUnknownDate) {
		t.Fatalf("SetDate(unknown) = %v, want ErrUnknownDate", err)
	}
	if err := s.SetDate("2021-01-10"); err != nil {
		t.Fatalf("SetDate: %v", err)
	}
	if got := s.State().CurrentDate; got != "2021-01-10" {
		t.Errorf("CurrentDate = %q", got)
	}
}

func TestSubscribersSeeCommittedState(t *testing.T) {
	s := New(nil)
	var kinds []ChangeKind
	unsub := s.Subscribe(func(c Change) {
		kinds = append(kinds, c.Kind)
		if c.Kind == DatasetChanged && (c.State.Dataset == nil || c.State.Dataset.Date != "2021-01-01") {
			t.Errorf("subscriber saw partial dataset state: %+v", c.State)
		}
		if got := s.State(); c.Kind == ZoomChanged && got.Zoom.K != 2 {
			t.Errorf("store not committed before notify: %+v", got.Zoom)
		}
	})

	s.SetDataset(&model.MapDataset{Date: "2021-01-01"})
	s.SetZoom(mapview.Transform{K: 2})
	s.SetStats(&model.GlobalStats{TotalCases: 1})
	s.SetMapReady(true)
	unsub()
	s.SetMapReady(false)

	want := []ChangeKind{DatasetChanged, ZoomChanged, StatsChanged, MapReadyChanged}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestFailedMutationDoesNotNotify(t *testing.T) {
	s := New(nil)
	s.SetDates(model.NewDateSet([]string{"2021-01-01"}))
	calls := 0
	s.Subscribe(func(Change) { calls++ })
	if err := s.SetDate("1999-01-01"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 0 {
		t.Errorf("notified %d times for a rejected mutation", calls)
	}
}

func TestDarkModePersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")

	first := New(config.NewPreferenceFile(path))
	if err := first.Restore(); err != nil {
		t.Fatalf("Restore with no file: %v", err)
	}
	if first.State().DarkMode {
		t.Fatal("dark mode should default to off")
	}
	on, err := first.ToggleDarkMode()
	if err != nil || !on {
		t.Fatalf("ToggleDarkMode = %v, %v", on, err)
	}

	// Simulated reload: a fresh store over the same file.
	second := New(config.NewPreferenceFile(path))
	if err := second.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !second.State().DarkMode {
		t.Fatal("dark mode did not survive reload")
	}

	if on, _ := second.ToggleDarkMode(); on {
		t.Fatal("second toggle should turn dark mode off")
	}
	third := New(config.NewPreferenceFile(path))
	third.Restore()
	if third.State().DarkMode {
		t.Error("dark mode off did not survive reload")
	}
}

type failingPrefs struct{}

func (failingPrefs) DarkMode() (bool, error) { return false, errors.New("disk on fire") }
func (failingPrefs) SetDarkMode(bool) error  { return errors.New("disk on fire") }

func TestToggleStillAppliesWhenSaveFails(t *testing.T) {
	s := New(failingPrefs{})
	on, err := s.ToggleDarkMode()
	if err == nil {
		t.Fatal("expected save error")
	}
	if !on || !s.State().DarkMode {
		t.Error("toggle should apply even when persisting fails")
	}
	if err := s.Restore(); err == nil {
		t.Error("expected load error")
	}
}

func TestSetDatesClearsStaleCurrentDate(t *testing.T) {
	s := New(nil)
	s.SetDates(model.NewDateSet([]string{"2021-01-01", "2021-01-10"}))
	s.SetDate("2021-01-10")
	s.SetDates(model.NewDateSet([]string{"2021-01-01"}))
	if got := s.State().CurrentDate; got != "" {
		t.Errorf("CurrentDate = %q, want cleared", got)
	}
}
