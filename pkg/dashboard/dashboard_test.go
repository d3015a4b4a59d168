package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vanderheijden86/pandemap/pkg/config"
	"github.com/vanderheijden86/pandemap/pkg/geo"
	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/model"
	"github.com/vanderheijden86/pandemap/pkg/state"
)

const oneSquare = `{"type":"FeatureCollection","features":[
 {"type":"Feature","id":"250","properties":{"name":"France"},
  "geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}}]}`

type fakeBackend struct {
	mu         sync.Mutex
	healthErr  error
	datesErr   error
	mapErr     error
	tsCalls    int
	mapCalls   []string
	statsCalls []string
}

func (f *fakeBackend) Health(context.Context) (model.Health, error) {
	loaded := f.healthErr == nil
	return model.Health{DataLoaded: &loaded}, f.healthErr
}

func (f *fakeBackend) Timeseries(context.Context) (model.DateSet, error) {
	f.mu.Lock()
	f.tsCalls++
	f.mu.Unlock()
	if f.datesErr != nil {
		return model.DateSet{}, f.datesErr
	}
	return model.NewDateSet([]string{"2021-01-01", "2021-01-10"}), nil
}

func (f *fakeBackend) MapData(_ context.Context, date string) (*model.MapDataset, error) {
	f.mu.Lock()
	f.mapCalls = append(f.mapCalls, date)
	f.mu.Unlock()
	if f.mapErr != nil {
		return nil, f.mapErr
	}
	return &model.MapDataset{Date: date, Countries: []model.CountryRecord{
		{Country: "France", ISOCode: "250", Cases: 10, CasesPerMillion: 250000},
	}}, nil
}

func (f *fakeBackend) GlobalStats(_ context.Context, date string) (*model.GlobalStats, error) {
	f.mu.Lock()
	f.statsCalls = append(f.statsCalls, date)
	f.mu.Unlock()
	return &model.GlobalStats{Date: date, TotalCases: 10}, nil
}

type countingLoader struct {
	calls atomic.Int32
	err   error
}

func (l *countingLoader) load(context.Context) (*geo.World, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return geo.Parse([]byte(oneSquare))
}

func newDashboard(t *testing.T, b *fakeBackend, l *countingLoader) *Dashboard {
	t.Helper()
	prefs := config.NewPreferenceFile(filepath.Join(t.TempDir(), "preferences.yaml"))
	return New(b, state.New(prefs), l.load, WithTransition(0), WithViewport(200, 200))
}

func TestBootstrapHappyPath(t *testing.T) {
	b := &fakeBackend{}
	l := &countingLoader{}
	db := newDashboard(t, b, l)

	rep := db.Bootstrap(context.Background())
	if rep.Halted() || rep.DatesErr != nil || rep.DataErr != nil || rep.MapErr != nil || rep.PrefsErr != nil {
		t.Fatalf("report = %+v", rep)
	}
	st := db.Store().State()
	if st.CurrentDate != "2021-01-10" {
		t.Errorf("CurrentDate = %q, want latest", st.CurrentDate)
	}
	if !st.MapReady {
		t.Error("map should be ready")
	}
	if r := db.Renderer(); r == nil || r.Bucket(0) != mapview.Critical {
		t.Error("renderer should show the initial dataset")
	}
}

func TestBootstrapHaltsOnHealthFailure(t *testing.T) {
	b := &fakeBackend{healthErr: errors.New("backend data not loaded properly")}
	l := &countingLoader{}
	db := newDashboard(t, b, l)

	rep := db.Bootstrap(context.Background())
	if !rep.Halted() {
		t.Fatal("expected halt")
	}
	if b.tsCalls != 0 || l.calls.Load() != 0 {
		t.Errorf("initialisation continued: timeseries=%d geometry=%d", b.tsCalls, l.calls.Load())
	}
}

func TestBootstrapPhasesAreIsolated(t *testing.T) {
	t.Run("map failure", func(t *testing.T) {
		b := &fakeBackend{}
		l := &countingLoader{err: errors.New("geometry 404")}
		db := newDashboard(t, b, l)

		rep := db.Bootstrap(context.Background())
		var mie *MapInitError
		if !errors.As(rep.MapErr, &mie) {
			t.Fatalf("MapErr = %v, want *MapInitError", rep.MapErr)
		}
		if rep.DatesErr != nil || rep.DataErr != nil {
			t.Errorf("data phases should succeed: %+v", rep)
		}
		st := db.Store().State()
		if st.CurrentDate != "2021-01-10" || st.Stats == nil {
			t.Errorf("state = %+v", st)
		}
		if st.MapReady {
			t.Error("map must not be ready")
		}
	})

	t.Run("dates failure", func(t *testing.T) {
		b := &fakeBackend{datesErr: errors.New("timeseries down")}
		l := &countingLoader{}
		db := newDashboard(t, b, l)

		rep := db.Bootstrap(context.Background())
		if rep.DatesErr == nil {
			t.Fatal("expected dates error")
		}
		if rep.MapErr != nil || !db.Store().State().MapReady {
			t.Errorf("map should still initialise: %v", rep.MapErr)
		}
	})

	t.Run("dataset failure", func(t *testing.T) {
		b := &fakeBackend{mapErr: errors.New("map-data down")}
		db := newDashboard(t, b, &countingLoader{})
		rep := db.Bootstrap(context.Background())
		if rep.DataErr == nil {
			t.Fatal("expected data error")
		}
		if db.Store().State().Stats == nil {
			t.Error("stats should load independently of the dataset")
		}
	})
}

func TestInitMapIdempotent(t *testing.T) {
	l := &countingLoader{}
	db := newDashboard(t, &fakeBackend{}, l)

	first, err := db.InitMap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.InitMap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second InitMap should return the existing renderer")
	}
	if l.calls.Load() != 1 {
		t.Errorf("geometry loaded %d times", l.calls.Load())
	}
}

func TestInitMapErrorIsSticky(t *testing.T) {
	l := &countingLoader{err: errors.New("boom")}
	db := newDashboard(t, &fakeBackend{}, l)

	_, err1 := db.InitMap(context.Background())
	_, err2 := db.InitMap(context.Background())
	if err1 == nil || err1 != err2 {
		t.Errorf("errors = %v / %v, want the same MapInitError", err1, err2)
	}
	if l.calls.Load() != 1 {
		t.Errorf("geometry loaded %d times", l.calls.Load())
	}
	if db.MapErr() != err1 {
		t.Error("MapErr should expose the sticky error")
	}
}

func TestRendererFollowsStore(t *testing.T) {
	clock := time.Unix(0, 0)
	b := &fakeBackend{}
	db := New(b, state.New(nil), (&countingLoader{}).load,
		WithTransition(0), WithClock(func() time.Time { return clock }))
	r, err := db.InitMap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	db.Store().SetDataset(&model.MapDataset{Countries: []model.CountryRecord{
		{Country: "France", ISOCode: "250", Cases: 1, CasesPerMillion: 20000},
	}})
	if r.Bucket(0) != mapview.Moderate {
		t.Errorf("bucket = %v, want moderate", r.Bucket(0))
	}

	db.Resize(100, 50)
	if w, h := r.Size(); w != 100 || h != 50 {
		t.Errorf("renderer size = %vx%v", w, h)
	}
	if again, _ := db.InitMap(context.Background()); again != r {
		t.Error("resize must not rebuild the renderer")
	}
}
