package fixture

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/pandemap/pkg/model"
)

//go:embed sample.json
var sampleJSON []byte

// minCases mirrors the backend's rule that countries below this many cases
// are left out of a snapshot.
const minCases = 10

// Data is the replayed backend content: a date list and one record list per
// date.
type Data struct {
	Dates     []string                         `json:"dates"`
	Snapshots map[string][]model.CountryRecord `json:"snapshots"`
}

// Sample returns the embedded demo data.
func Sample() *Data {
	d, err := Parse(sampleJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded fixture is invalid: %v", err))
	}
	return d
}

// Load reads a fixture file.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return Parse(raw)
}

// Parse decodes fixture JSON. Dates missing from the explicit list are
// taken from the snapshot keys.
func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	if d.Snapshots == nil {
		d.Snapshots = make(map[string][]model.CountryRecord)
	}
	if len(d.Dates) == 0 {
		for day := range d.Snapshots {
			d.Dates = append(d.Dates, day)
		}
	}
	d.Dates = model.NewDateSet(d.Dates).Days()
	if len(d.Dates) == 0 {
		return nil, fmt.Errorf("fixture has no dates")
	}
	return &d, nil
}

// Dataset returns the map payload for day.
func (d *Data) Dataset(day string) model.MapDataset {
	out := model.MapDataset{Date: day, Countries: []model.CountryRecord{}}
	for _, rec := range d.Snapshots[day] {
		if rec.Cases >= minCases {
			out.Countries = append(out.Countries, rec)
		}
	}
	sort.SliceStable(out.Countries, func(i, j int) bool {
		return out.Countries[i].CasesPerMillion > out.Countries[j].CasesPerMillion
	})
	return out
}

// Stats returns the aggregate payload for day.
func (d *Data) Stats(day string) model.GlobalStats {
	gs := model.GlobalStats{Date: day}
	for _, rec := range d.Dataset(day).Countries {
		gs.TotalCases += rec.Cases
		gs.TotalDeaths += rec.Deaths
		gs.TotalCountries++
	}
	return gs
}

// Country returns the detail payload for name on the latest date it
// appears.
func (d *Data) Country(name string) (model.CountryDetail, bool) {
	var (
		detail model.CountryDetail
		found  bool
		prev   *model.CountryRecord
	)
	for _, day := range d.Dates {
		for _, rec := range d.Snapshots[day] {
			if !strings.EqualFold(rec.Country, name) {
				continue
			}
			found = true
			detail.Country = rec.Country
			detail.LatestStats = model.LatestStats{
				TotalCases:       rec.Cases,
				TotalDeaths:      rec.Deaths,
				CasesPerMillion:  rec.CasesPerMillion,
				DeathsPerMillion: rec.DeathsPerMillion,
			}
			point := model.DailyPoint{Date: day}
			if prev != nil {
				point.NewCases = rec.Cases - prev.Cases
				point.NewDeaths = rec.Deaths - prev.Deaths
			}
			detail.DailyData = append(detail.DailyData, point)
			r := rec
			prev = &r
		}
	}
	if n := len(detail.DailyData); n > 30 {
		detail.DailyData = detail.DailyData[n-30:]
	}
	return detail, found
}

// Top returns the ten largest countries by cases and by deaths on the
// latest date.
func (d *Data) Top() model.TopCountries {
	latest := d.Dataset(d.Dates[len(d.Dates)-1]).Countries
	rank := func(less func(a, b model.CountryRecord) bool) []model.RankedCountry {
		rows := append([]model.CountryRecord(nil), latest...)
		sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
		if len(rows) > 10 {
			rows = rows[:10]
		}
		out := make([]model.RankedCountry, len(rows))
		for i, r := range rows {
			out[i] = model.RankedCountry{Country: r.Country, Cases: r.Cases, Deaths: r.Deaths}
		}
		return out
	}
	return model.TopCountries{
		ByCases:  rank(func(a, b model.CountryRecord) bool { return a.Cases > b.Cases }),
		ByDeaths: rank(func(a, b model.CountryRecord) bool { return a.Deaths > b.Deaths }),
	}
}
