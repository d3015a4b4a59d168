package timeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/pandemap/pkg/metrics"
	"github.com/vanderheijden86/pandemap/pkg/model"
	"github.com/vanderheijden86/pandemap/pkg/state"
)

type fakeFetcher struct {
	mu        sync.Mutex
	mapCalls  []string
	statCalls []string
	mapErr    error
	statErr   error
}

func (f *fakeFetcher) MapData(_ context.Context, date string) (*model.MapDataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mapCalls = append(f.mapCalls, date)
	if f.mapErr != nil {
		return nil, f.mapErr
	}
	return &model.MapDataset{Date: date}, nil
}

func (f *fakeFetcher) GlobalStats(_ context.Context, date string) (*model.GlobalStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statCalls = append(f.statCalls, date)
	if f.statErr != nil {
		return nil, f.statErr
	}
	return &model.GlobalStats{Date: date, TotalCases: 42}, nil
}

var testDays = []string{"2021-01-01", "2021-01-10", "2021-01-20"}

func setup(t *testing.T, days ...string) (*Controller, *state.Store, *fakeFetcher) {
	t.Helper()
	store := state.New(nil)
	store.SetDates(model.NewDateSet(days))
	f := &fakeFetcher{}
	return New(store, f), store, f
}

func countChanges(store *state.Store) map[state.ChangeKind]int {
	counts := make(map[state.ChangeKind]int)
	store.Subscribe(func(c state.Change) { counts[c.Kind]++ })
	return counts
}

func TestSelectDateExact(t *testing.T) {
	for _, day := range testDays {
		t.Run(day, func(t *testing.T) {
			c, store, f := setup(t, testDays...)
			counts := countChanges(store)

			if _, err := c.SelectDate(context.Background(), day); err != nil {
				t.Fatalf("SelectDate: %v", err)
			}
			st := store.State()
			if st.CurrentDate != day {
				t.Errorf("CurrentDate = %q, want %q", st.CurrentDate, day)
			}
			if counts[state.DatasetChanged] != 1 || counts[state.StatsChanged] != 1 {
				t.Errorf("recolours = %d, stats refreshes = %d, want 1 each",
					counts[state.DatasetChanged], counts[state.StatsChanged])
			}
			if len(f.mapCalls) != 1 || len(f.statCalls) != 1 {
				t.Errorf("fetches = %v / %v", f.mapCalls, f.statCalls)
			}
		})
	}
}

func TestSelectDateCoercesBeforeFetching(t *testing.T) {
	c, store, f := setup(t, "2021-01-01", "2021-01-10")
	res, err := c.SelectDate(context.Background(), "2021-01-03")
	if err != nil {
		t.Fatalf("SelectDate: %v", err)
	}
	if !res.Coerced() || res.Date != "2021-01-01" {
		t.Errorf("request = %+v, want coerced to 2021-01-01", res.Request)
	}
	if store.State().CurrentDate != "2021-01-01" {
		t.Errorf("CurrentDate = %q", store.State().CurrentDate)
	}
	if f.mapCalls[0] != "2021-01-01" || f.statCalls[0] != "2021-01-01" {
		t.Errorf("fetched %v / %v, want the coerced date", f.mapCalls, f.statCalls)
	}
}

func TestCoerceTieGoesEarlier(t *testing.T) {
	dates := model.NewDateSet([]string{"2021-01-01", "2021-01-03"})
	got, err := Coerce(dates, "2021-01-02")
	if err != nil || got != "2021-01-01" {
		t.Errorf("Coerce tie = %q, %v", got, err)
	}
	if _, err := Coerce(dates, "yesterday"); err == nil {
		t.Error("expected error for invalid date")
	}
	if _, err := Coerce(model.DateSet{}, "2021-01-01"); !errors.Is(err, ErrNoDates) {
		t.Errorf("err = %v, want ErrNoDates", err)
	}
}

func TestCoerceAlwaysReturnsAvailableDate(t *testing.T) {
	dates := model.NewDateSet(testDays)
	rapid.Check(t, func(t *rapid.T) {
		day := rapid.IntRange(1, 31).Draw(t, "day")
		month := rapid.IntRange(1, 2).Draw(t, "month")
		in := time.Date(2021, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(model.DateLayout)
		got, err := Coerce(dates, in)
		if err != nil {
			t.Fatalf("Coerce(%s): %v", in, err)
		}
		if !dates.Contains(got) {
			t.Fatalf("Coerce(%s) = %s, not available", in, got)
		}
	})
}

func TestStaleResultIsDiscarded(t *testing.T) {
	c, store, _ := setup(t, testDays...)
	before := metrics.StaleDiscarded.Value()

	first, err := c.Begin("2021-01-01")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Begin("2021-01-20")
	if err != nil {
		t.Fatal(err)
	}

	// The newer response arrives first, the older one afterwards.
	if !c.Apply(c.Load(context.Background(), second)) {
		t.Fatal("latest result should apply")
	}
	if c.Apply(c.Load(context.Background(), first)) {
		t.Fatal("stale result should be discarded")
	}
	st := store.State()
	if st.CurrentDate != "2021-01-20" || st.Dataset.Date != "2021-01-20" {
		t.Errorf("state = %q / %q, want the newer selection", st.CurrentDate, st.Dataset.Date)
	}
	if metrics.StaleDiscarded.Value() != before+1 {
		t.Error("stale discard not counted")
	}
}

func TestIndependentFailures(t *testing.T) {
	c, store, f := setup(t, testDays...)
	f.mapErr = errors.New("map down")

	res, err := c.SelectDate(context.Background(), "2021-01-10")
	if err == nil || !errors.Is(err, f.mapErr) {
		t.Fatalf("err = %v, want map error", err)
	}
	if res.Stats == nil {
		t.Fatal("stats should load despite the dataset failure")
	}
	st := store.State()
	if st.Stats == nil || st.Stats.Date != "2021-01-10" {
		t.Errorf("stats = %+v", st.Stats)
	}
	if st.Dataset != nil {
		t.Errorf("dataset = %+v, want none", st.Dataset)
	}
	if st.CurrentDate != "" {
		t.Errorf("CurrentDate = %q, want unset without a dataset", st.CurrentDate)
	}
}

func TestDatasetFailureKeepsPreviousDate(t *testing.T) {
	c, store, f := setup(t, testDays...)
	if _, err := c.SelectDate(context.Background(), "2021-01-10"); err != nil {
		t.Fatal(err)
	}

	f.mu.Lock()
	f.mapErr = errors.New("map down")
	f.mu.Unlock()
	if _, err := c.SelectDate(context.Background(), "2021-01-20"); !errors.Is(err, f.mapErr) {
		t.Fatalf("err = %v, want map error", err)
	}

	st := store.State()
	if st.CurrentDate != "2021-01-10" || st.Dataset.Date != "2021-01-10" {
		t.Errorf("date/dataset = %q / %q, want both left at 2021-01-10",
			st.CurrentDate, st.Dataset.Date)
	}
	if st.Stats.Date != "2021-01-20" {
		t.Errorf("stats date = %q, want 2021-01-20", st.Stats.Date)
	}
	if next, ok := c.NextDate(); !ok || next != "2021-01-20" {
		t.Errorf("NextDate = %q/%v, want a retry of 2021-01-20", next, ok)
	}
}

func TestButtons(t *testing.T) {
	c, store, _ := setup(t, testDays...)
	if p, n := c.Buttons(); p || n {
		t.Errorf("no current date: buttons = %v/%v, want both disabled", p, n)
	}
	tests := []struct {
		day        string
		prev, next bool
	}{
		{"2021-01-01", false, true},
		{"2021-01-10", true, true},
		{"2021-01-20", true, false},
	}
	for _, tt := range tests {
		if err := store.SetDate(tt.day); err != nil {
			t.Fatal(err)
		}
		p, n := c.Buttons()
		if p != tt.prev || n != tt.next {
			t.Errorf("%s: buttons = %v/%v, want %v/%v", tt.day, p, n, tt.prev, tt.next)
		}
	}
}

func TestSingleDateDisablesBoth(t *testing.T) {
	c, store, _ := setup(t, "2021-01-01")
	store.SetDate("2021-01-01")
	if p, n := c.Buttons(); p || n {
		t.Errorf("buttons = %v/%v", p, n)
	}
}

func TestPrevNext(t *testing.T) {
	c, store, _ := setup(t, testDays...)
	ctx := context.Background()
	if _, err := c.SelectDate(ctx, "2021-01-10"); err != nil {
		t.Fatal(err)
	}
	if _, moved, err := c.Next(ctx); !moved || err != nil {
		t.Fatalf("Next = %v, %v", moved, err)
	}
	if store.State().CurrentDate != "2021-01-20" {
		t.Errorf("after Next = %q", store.State().CurrentDate)
	}
	if _, moved, _ := c.Next(ctx); moved {
		t.Error("Next at the last date should be a no-op")
	}
	c.Prev(ctx)
	c.Prev(ctx)
	if store.State().CurrentDate != "2021-01-01" {
		t.Errorf("after two Prev = %q", store.State().CurrentDate)
	}
	if _, moved, _ := c.Prev(ctx); moved {
		t.Error("Prev at the first date should be a no-op")
	}
	if latest, ok := c.LatestDate(); !ok || latest != "2021-01-20" {
		t.Errorf("LatestDate = %q, %v", latest, ok)
	}
}
