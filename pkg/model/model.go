// Package model defines the records exchanged with the statistics backend and
// the date list that drives the timeline.
package model

import (
	"sort"
	"time"
)

// DateLayout is the calendar-day format used by every backend endpoint.
const DateLayout = "2006-01-02"

// CountryRecord is one country's figures for a single date snapshot.
type CountryRecord struct {
	Country          string  `json:"country"`
	ISOCode          string  `json:"iso_code"`
	Cases            int64   `json:"cases"`
	Deaths           int64   `json:"deaths"`
	CasesPerMillion  float64 `json:"cases_per_million"`
	DeathsPerMillion float64 `json:"deaths_per_million"`
	Severity         float64 `json:"severity,omitempty"` // backend-relative score, not used for colouring
}

// MapDataset is the full set of per-country records for one date.
// A dataset is replaced wholesale on every date change, never edited.
type MapDataset struct {
	Date      string          `json:"date"`
	Countries []CountryRecord `json:"countries"`
}

// ByISOCode returns the record whose ISO code equals code.
func (d *MapDataset) ByISOCode(code string) (CountryRecord, bool) {
	if d == nil || code == "" {
		return CountryRecord{}, false
	}
	for _, c := range d.Countries {
		if c.ISOCode == code {
			return c, true
		}
	}
	return CountryRecord{}, false
}

// GlobalStats holds the aggregate figures for a date. They come from a
// separate endpoint and may not add up to the dataset's own totals.
type GlobalStats struct {
	Date           string `json:"date"`
	TotalCases     int64  `json:"total_cases"`
	TotalDeaths    int64  `json:"total_deaths"`
	TotalCountries int    `json:"total_countries"`
}

// Health is the payload of the backend probe endpoint.
type Health struct {
	Status     string     `json:"status"`
	Message    string     `json:"message"`
	DataLoaded *bool      `json:"data_loaded"`
	DateRange  *DateRange `json:"date_range,omitempty"`
}

// Ready reports whether the backend explicitly claims its data is loaded.
func (h Health) Ready() bool {
	return h.DataLoaded != nil && *h.DataLoaded
}

// DateRange is the first and last available day.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Timeseries is the payload of the date list endpoint.
type Timeseries struct {
	Dates []string `json:"dates"`
}

// CountryDetail is the payload of the per-country endpoint.
type CountryDetail struct {
	Country     string       `json:"country"`
	LatestStats LatestStats  `json:"latest_stats"`
	DailyData   []DailyPoint `json:"daily_data"`
}

// LatestStats is the most recent cumulative figures for one country.
type LatestStats struct {
	TotalCases       int64   `json:"total_cases"`
	TotalDeaths      int64   `json:"total_deaths"`
	CasesPerMillion  float64 `json:"cases_per_million"`
	DeathsPerMillion float64 `json:"deaths_per_million"`
}

// DailyPoint is one day of new cases and deaths.
type DailyPoint struct {
	Date      string `json:"date"`
	NewCases  int64  `json:"new_cases"`
	NewDeaths int64  `json:"new_deaths"`
}

// TopCountries is the payload of the ranking endpoint.
type TopCountries struct {
	ByCases  []RankedCountry `json:"by_cases"`
	ByDeaths []RankedCountry `json:"by_deaths"`
}

// RankedCountry is one row of a ranking.
type RankedCountry struct {
	Country string `json:"country"`
	Cases   int64  `json:"cases"`
	Deaths  int64  `json:"deaths"`
}

// DateSet is an ascending, duplicate-free list of calendar days.
type DateSet struct {
	days []string
	at   []time.Time
}

// NewDateSet parses, sorts and dedupes raw. Entries that are not valid
// calendar days are dropped.
func NewDateSet(raw []string) DateSet {
	seen := make(map[string]time.Time, len(raw))
	for _, s := range raw {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			continue
		}
		seen[t.Format(DateLayout)] = t
	}
	ds := DateSet{
		days: make([]string, 0, len(seen)),
		at:   make([]time.Time, 0, len(seen)),
	}
	for s := range seen {
		ds.days = append(ds.days, s)
	}
	sort.Strings(ds.days)
	for _, s := range ds.days {
		ds.at = append(ds.at, seen[s])
	}
	return ds
}

// Len returns the number of days.
func (d DateSet) Len() int { return len(d.days) }

// Empty reports whether no dates are loaded.
func (d DateSet) Empty() bool { return len(d.days) == 0 }

// Days returns a copy of the ordered day strings.
func (d DateSet) Days() []string {
	out := make([]string, len(d.days))
	copy(out, d.days)
	return out
}

// At returns the i-th day.
func (d DateSet) At(i int) string { return d.days[i] }

// First returns the earliest day, or "" when empty.
func (d DateSet) First() string {
	if d.Empty() {
		return ""
	}
	return d.days[0]
}

// Last returns the latest day, or "" when empty.
func (d DateSet) Last() string {
	if d.Empty() {
		return ""
	}
	return d.days[len(d.days)-1]
}

// Index returns the position of day, or -1.
func (d DateSet) Index(day string) int {
	i := sort.SearchStrings(d.days, day)
	if i < len(d.days) && d.days[i] == day {
		return i
	}
	return -1
}

// Contains reports whether day is one of the available dates.
func (d DateSet) Contains(day string) bool { return d.Index(day) >= 0 }

// Nearest returns the available date with the smallest absolute time
// distance to t. On an exact tie the earlier date wins.
func (d DateSet) Nearest(t time.Time) (string, bool) {
	if d.Empty() {
		return "", false
	}
	// Seconds, not time.Duration: a Duration saturates after ~292 years.
	target := t.Unix()
	best := 0
	bestDist := absSeconds(d.at[0].Unix() - target)
	for i := 1; i < len(d.at); i++ {
		if dist := absSeconds(d.at[i].Unix() - target); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return d.days[best], true
}

func absSeconds(d int64) int64 {
	if d < 0 {
		return -d
	}
	return d
}
