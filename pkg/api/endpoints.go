package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vanderheijden86/pandemap/pkg/metrics"
	"github.com/vanderheijden86/pandemap/pkg/model"
)

// Health probes the backend. It fails unless the response carries
// data_loaded=true, and reports failures as a persistent notice.
func (c *Client) Health(ctx context.Context) (model.Health, error) {
	defer metrics.Timer(metrics.HealthProbe)()

	var h model.Health
	err := c.FetchJSON(ctx, "/api/test", &h, Silent())
	if err == nil && !h.Ready() {
		msg := ErrDataNotLoaded.Error()
		if h.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, h.Message)
		}
		err = &RequestError{URL: c.resolve("/api/test"), Message: msg, Err: ErrDataNotLoaded}
	}
	if err != nil {
		c.notifier.Notify(Notice{
			Message: fmt.Sprintf("Backend connection failed: %v. Please make sure the backend server is running at %s",
				err, c.baseURL),
			Persistent: true,
		})
		return h, err
	}
	return h, nil
}

// Timeseries fetches the list of available dates.
func (c *Client) Timeseries(ctx context.Context) (model.DateSet, error) {
	defer metrics.Timer(metrics.TimeseriesFetch)()

	var ts model.Timeseries
	if err := c.FetchJSON(ctx, "/api/timeseries", &ts); err != nil {
		return model.DateSet{}, err
	}
	return model.NewDateSet(ts.Dates), nil
}

// MapData fetches the per-country dataset for date.
func (c *Client) MapData(ctx context.Context, date string) (*model.MapDataset, error) {
	defer metrics.Timer(metrics.MapDataFetch)()

	var ds model.MapDataset
	if err := c.FetchJSON(ctx, "/api/map-data/"+url.PathEscape(date), &ds); err != nil {
		return nil, err
	}
	if ds.Date == "" {
		ds.Date = date
	}
	return &ds, nil
}

// GlobalStats fetches the aggregate figures for date.
func (c *Client) GlobalStats(ctx context.Context, date string) (*model.GlobalStats, error) {
	defer metrics.Timer(metrics.GlobalStatsFetch)()

	var gs model.GlobalStats
	if err := c.FetchJSON(ctx, "/api/global-stats?date="+url.QueryEscape(date), &gs); err != nil {
		return nil, err
	}
	if gs.Date == "" {
		gs.Date = date
	}
	return &gs, nil
}

// CountryDetail fetches one country's latest figures and last 30 days.
func (c *Client) CountryDetail(ctx context.Context, country string) (*model.CountryDetail, error) {
	var cd model.CountryDetail
	if err := c.FetchJSON(ctx, "/api/country/"+url.PathEscape(country), &cd); err != nil {
		return nil, err
	}
	return &cd, nil
}

// TopCountries fetches the rankings by cases and deaths.
func (c *Client) TopCountries(ctx context.Context) (*model.TopCountries, error) {
	var tc model.TopCountries
	if err := c.FetchJSON(ctx, "/api/top-countries", &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}
