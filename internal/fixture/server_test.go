package fixture

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vanderheijden86/pandemap/pkg/api"
)

func newTestClient(t *testing.T, opts ...Option) *api.Client {
	t.Helper()
	srv := httptest.NewServer(New(Sample(), opts...).Handler())
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, api.WithRetries(0), api.WithBackoffStep(time.Millisecond))
}

func TestServerRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	h, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.DateRange == nil || h.DateRange.Start != "2021-01-01" || h.DateRange.End != "2021-01-20" {
		t.Errorf("date range = %+v", h.DateRange)
	}

	dates, err := c.Timeseries(ctx)
	if err != nil {
		t.Fatalf("Timeseries: %v", err)
	}
	if dates.Len() != 3 {
		t.Fatalf("dates = %v", dates.Days())
	}

	ds, err := c.MapData(ctx, "2021-01-10")
	if err != nil {
		t.Fatalf("MapData: %v", err)
	}
	if len(ds.Countries) != 6 {
		t.Errorf("countries = %d, want 6", len(ds.Countries))
	}
	if ds.Countries[0].Country != "Czechia" {
		t.Errorf("first country = %q, want highest per-million first", ds.Countries[0].Country)
	}

	gs, err := c.GlobalStats(ctx, "2021-01-10")
	if err != nil {
		t.Fatalf("GlobalStats: %v", err)
	}
	var want int64
	for _, rec := range ds.Countries {
		want += rec.Cases
	}
	if gs.TotalCases != want || gs.TotalCountries != 6 {
		t.Errorf("stats = %+v, want total %d", gs, want)
	}
}

func TestServerUnknownDateIsEmpty(t *testing.T) {
	c := newTestClient(t)
	ds, err := c.MapData(context.Background(), "1999-01-01")
	if err != nil {
		t.Fatalf("MapData: %v", err)
	}
	if len(ds.Countries) != 0 {
		t.Errorf("countries = %d, want 0", len(ds.Countries))
	}
}

func TestServerCountry(t *testing.T) {
	c := newTestClient(t)
	cd, err := c.CountryDetail(context.Background(), "france")
	if err != nil {
		t.Fatalf("CountryDetail: %v", err)
	}
	if cd.Country != "France" || len(cd.DailyData) != 3 {
		t.Errorf("detail = %+v", cd)
	}
	if cd.DailyData[1].NewCases != 2828588-2697014 {
		t.Errorf("new cases = %d", cd.DailyData[1].NewCases)
	}

	_, err = c.CountryDetail(context.Background(), "Atlantis")
	var reqErr *api.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != 404 || reqErr.Message != "Country Atlantis not found" {
		t.Errorf("err = %v", err)
	}
}

func TestServerTop(t *testing.T) {
	c := newTestClient(t)
	top, err := c.TopCountries(context.Background())
	if err != nil {
		t.Fatalf("TopCountries: %v", err)
	}
	if len(top.ByCases) == 0 || top.ByCases[0].Country != "United States" {
		t.Errorf("by cases = %+v", top.ByCases)
	}
}

func TestServerNotReady(t *testing.T) {
	c := newTestClient(t, WithNotReady())
	_, err := c.Health(context.Background())
	if !errors.Is(err, api.ErrDataNotLoaded) {
		t.Errorf("err = %v, want ErrDataNotLoaded", err)
	}
}

func TestParseDerivesDates(t *testing.T) {
	d, err := Parse([]byte(`{"snapshots":{"2021-02-02":[],"2021-02-01":[]}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.Dates) != 2 || d.Dates[0] != "2021-02-01" {
		t.Errorf("dates = %v", d.Dates)
	}
	if _, err := Parse([]byte(`{}`)); err == nil {
		t.Error("expected error for fixture without dates")
	}
}
