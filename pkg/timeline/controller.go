// Package timeline drives date selection and keeps the map dataset and the
// aggregate figures in step with the selected date.
//
// A selection is split into Begin (coerce and stamp a token), Load (fetch,
// safe to run off the UI goroutine) and Apply (commit unless a newer
// selection has started). SelectDate runs all three in sequence.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/pandemap/pkg/debug"
	"github.com/vanderheijden86/pandemap/pkg/metrics"
	"github.com/vanderheijden86/pandemap/pkg/model"
	"github.com/vanderheijden86/pandemap/pkg/state"
)

var (
	// ErrNoDates is returned when no date list has been loaded.
	ErrNoDates = errors.New("no dates available")
	// ErrSuperseded is returned by SelectDate when a newer selection
	// started while this one was loading.
	ErrSuperseded = errors.New("date selection superseded")
)

// Fetcher loads the per-date payloads.
type Fetcher interface {
	MapData(ctx context.Context, date string) (*model.MapDataset, error)
	GlobalStats(ctx context.Context, date string) (*model.GlobalStats, error)
}

// Request is a started selection.
type Request struct {
	Requested string // what the caller asked for
	Date      string // the available date it resolved to
	Token     uint64
}

// Coerced reports whether the requested date was replaced by the nearest
// available one.
func (r Request) Coerced() bool { return r.Requested != r.Date }

// Result is a loaded selection. Dataset and stats fail independently.
type Result struct {
	Request
	Dataset    *model.MapDataset
	Stats      *model.GlobalStats
	DatasetErr error
	StatsErr   error
}

// Err joins the fetch errors.
func (r Result) Err() error {
	return errors.Join(r.DatasetErr, r.StatsErr)
}

// Controller selects dates against a state store.
type Controller struct {
	store *state.Store
	fetch Fetcher
	token atomic.Uint64
}

// New creates a controller.
func New(store *state.Store, fetch Fetcher) *Controller {
	return &Controller{store: store, fetch: fetch}
}

// Coerce maps day onto the available dates: an available day is returned
// as is, anything else becomes the nearest available day (ties go to the
// earlier one).
func Coerce(dates model.DateSet, day string) (string, error) {
	if dates.Empty() {
		return "", ErrNoDates
	}
	if dates.Contains(day) {
		return day, nil
	}
	t, err := time.Parse(model.DateLayout, day)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", day, err)
	}
	nearest, _ := dates.Nearest(t)
	return nearest, nil
}

// Begin coerces day and stamps the selection with a new token, which makes
// every earlier pending selection stale.
func (c *Controller) Begin(day string) (Request, error) {
	date, err := Coerce(c.store.State().Dates, day)
	if err != nil {
		return Request{}, err
	}
	req := Request{Requested: day, Date: date, Token: c.token.Add(1)}
	if req.Coerced() {
		debug.Log("timeline: %s not available, using %s", day, date)
	}
	return req, nil
}

// Load fetches the dataset and the stats for req concurrently.
func (c *Controller) Load(ctx context.Context, req Request) Result {
	res := Result{Request: req}
	var g errgroup.Group
	g.Go(func() error {
		res.Dataset, res.DatasetErr = c.fetch.MapData(ctx, req.Date)
		return nil
	})
	g.Go(func() error {
		res.Stats, res.StatsErr = c.fetch.GlobalStats(ctx, req.Date)
		return nil
	})
	_ = g.Wait()
	return res
}

// Apply commits res unless a newer selection has begun. It reports whether
// the result was applied. The current date only moves together with a
// dataset; stats are committed on their own.
func (c *Controller) Apply(res Result) bool {
	if res.Token != c.token.Load() {
		metrics.StaleDiscarded.Inc()
		debug.Log("timeline: discarding stale result for %s (token %d, latest %d)",
			res.Date, res.Token, c.token.Load())
		return false
	}
	if res.Dataset != nil {
		if err := c.store.SetDate(res.Date); err != nil {
			debug.Log("timeline: %v", err)
			return false
		}
		c.store.SetDataset(res.Dataset)
	}
	if res.Stats != nil {
		c.store.SetStats(res.Stats)
	}
	return true
}

// SelectDate begins, loads and applies a selection.
func (c *Controller) SelectDate(ctx context.Context, day string) (Result, error) {
	req, err := c.Begin(day)
	if err != nil {
		return Result{}, err
	}
	res := c.Load(ctx, req)
	if !c.Apply(res) {
		return res, ErrSuperseded
	}
	return res, res.Err()
}

// PrevDate returns the date before the current one.
func (c *Controller) PrevDate() (string, bool) {
	st := c.store.State()
	i := st.Dates.Index(st.CurrentDate)
	if i <= 0 {
		return "", false
	}
	return st.Dates.At(i - 1), true
}

// NextDate returns the date after the current one.
func (c *Controller) NextDate() (string, bool) {
	st := c.store.State()
	i := st.Dates.Index(st.CurrentDate)
	if i < 0 || i >= st.Dates.Len()-1 {
		return "", false
	}
	return st.Dates.At(i + 1), true
}

// LatestDate returns the last available date.
func (c *Controller) LatestDate() (string, bool) {
	dates := c.store.State().Dates
	if dates.Empty() {
		return "", false
	}
	return dates.Last(), true
}

// Prev selects the previous date. It is a no-op at the first date.
func (c *Controller) Prev(ctx context.Context) (Result, bool, error) {
	day, ok := c.PrevDate()
	if !ok {
		return Result{}, false, nil
	}
	res, err := c.SelectDate(ctx, day)
	return res, true, err
}

// Next selects the next date. It is a no-op at the last date.
func (c *Controller) Next(ctx context.Context) (Result, bool, error) {
	day, ok := c.NextDate()
	if !ok {
		return Result{}, false, nil
	}
	res, err := c.SelectDate(ctx, day)
	return res, true, err
}

// Buttons reports whether the previous and next controls are enabled.
func (c *Controller) Buttons() (prev, next bool) {
	_, prev = c.PrevDate()
	_, next = c.NextDate()
	return prev, next
}
