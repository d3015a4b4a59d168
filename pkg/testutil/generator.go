// Package testutil builds synthetic backend datasets and world geometry for
// tests and benchmarks. Every generator is deterministic for a given seed.
package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	json "github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/vanderheijden86/pandemap/internal/fixture"
	"github.com/vanderheijden86/pandemap/pkg/model"
)

// Country is a generated country: a display name, its numeric ISO code and
// the population used to derive per-million figures.
type Country struct {
	Name       string
	ISOCode    string
	Population int64
}

// Countries is the built-in roster. Generated datasets use a prefix of it
// and fall back to synthetic names beyond its length.
var Countries = []Country{
	{"United States", "840", 331_000_000},
	{"India", "356", 1_380_000_000},
	{"Brazil", "076", 212_000_000},
	{"France", "250", 65_000_000},
	{"United Kingdom", "826", 67_000_000},
	{"Germany", "276", 83_000_000},
	{"Italy", "380", 60_000_000},
	{"Spain", "724", 47_000_000},
	{"Czechia", "203", 10_700_000},
	{"Japan", "392", 126_000_000},
	{"South Africa", "710", 59_000_000},
	{"Australia", "036", 25_000_000},
	{"Canada", "124", 38_000_000},
	{"Mexico", "484", 129_000_000},
	{"Iceland", "352", 366_000},
	{"New Zealand", "554", 5_000_000},
}

// GeneratorConfig controls dataset generation.
type GeneratorConfig struct {
	Seed      int64     // Random seed for determinism (0 = use current time)
	Start     time.Time // First date (default: 2021-01-01)
	Days      int       // Number of dates (default: 10)
	Step      int       // Days between consecutive dates (default: 1)
	Countries int       // Number of countries (default: len(Countries))
	// Sparse drops a country from roughly this fraction of snapshots, so
	// lookups have to tolerate holes.
	Sparse float64
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		Start:     time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:      10,
		Step:      1,
		Countries: len(Countries),
	}
}

// Generator creates datasets.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if cfg.Days <= 0 {
		cfg.Days = 10
	}
	if cfg.Step <= 0 {
		cfg.Step = 1
	}
	if cfg.Countries <= 0 {
		cfg.Countries = len(Countries)
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Roster returns the countries a generated dataset covers.
func (g *Generator) Roster() []Country {
	out := make([]Country, g.cfg.Countries)
	for i := range out {
		if i < len(Countries) {
			out[i] = Countries[i]
			continue
		}
		// Synthetic codes start above the ISO 3166 numeric range.
		out[i] = Country{
			Name:       fmt.Sprintf("Country %03d", i),
			ISOCode:    fmt.Sprintf("%d", 900+i),
			Population: 1_000_000 + int64(i)*250_000,
		}
	}
	return out
}

// Dates returns the generated calendar days in ascending order.
func (g *Generator) Dates() []string {
	out := make([]string, g.cfg.Days)
	for i := range out {
		out[i] = g.cfg.Start.AddDate(0, 0, i*g.cfg.Step).Format(model.DateLayout)
	}
	return out
}

// Data generates cumulative figures for every country on every date.
// Cases and deaths never decrease from one snapshot to the next.
func (g *Generator) Data() *fixture.Data {
	roster := g.Roster()
	dates := g.Dates()
	d := &fixture.Data{
		Dates:     dates,
		Snapshots: make(map[string][]model.CountryRecord, len(dates)),
	}

	cases := make([]int64, len(roster))
	deaths := make([]int64, len(roster))
	for i, c := range roster {
		// Start above the backend's reporting floor and below ~1% of the
		// population.
		cases[i] = 100 + g.rng.Int63n(max(c.Population/100, 2))
		deaths[i] = cases[i] / int64(50+g.rng.Intn(50))
	}

	for _, day := range dates {
		recs := make([]model.CountryRecord, 0, len(roster))
		for i, c := range roster {
			growth := 1 + g.rng.Float64()*0.08
			next := int64(math.Ceil(float64(cases[i]) * growth))
			deaths[i] += (next - cases[i]) / int64(40+g.rng.Intn(60))
			cases[i] = next
			if g.cfg.Sparse > 0 && g.rng.Float64() < g.cfg.Sparse {
				continue
			}
			recs = append(recs, record(c, cases[i], deaths[i]))
		}
		d.Snapshots[day] = recs
	}
	return d
}

func record(c Country, cases, deaths int64) model.CountryRecord {
	perMillion := func(n int64) float64 {
		return math.Round(float64(n)/float64(c.Population)*1e7) / 10
	}
	return model.CountryRecord{
		Country:          c.Name,
		ISOCode:          c.ISOCode,
		Cases:            cases,
		Deaths:           deaths,
		CasesPerMillion:  perMillion(cases),
		DeathsPerMillion: perMillion(deaths),
	}
}

// World lays the roster out as a grid of square polygons, one feature per
// country, keyed by ISO code. Cells are size degrees wide and packed from
// the top-left of the Web Mercator safe latitude band.
func (g *Generator) World(size float64) *geojson.FeatureCollection {
	if size <= 0 {
		size = 10
	}
	roster := g.Roster()
	perRow := int(360 / size)
	fc := geojson.NewFeatureCollection()
	for i, c := range roster {
		col, row := i%perRow, i/perRow
		x0 := -180 + float64(col)*size
		y1 := 80 - float64(row)*size
		f := geojson.NewFeature(Square(x0, y1-size, size))
		f.ID = c.ISOCode
		f.Properties["name"] = c.Name
		fc.Append(f)
	}
	return fc
}

// Square returns a closed square ring anchored at its south-west corner.
func Square(x, y, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}}
}

// CellCenter is the centre of the i-th grid cell laid out by World.
func CellCenter(i int, size float64) orb.Point {
	if size <= 0 {
		size = 10
	}
	perRow := int(360 / size)
	col, row := i%perRow, i/perRow
	return orb.Point{-180 + (float64(col)+0.5)*size, 80 - (float64(row)+0.5)*size}
}

// MarshalData encodes a dataset in the fixture file format.
func MarshalData(d *fixture.Data) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// QuickData returns a default dataset with the given number of dates.
func QuickData(days int) *fixture.Data {
	cfg := DefaultConfig()
	cfg.Days = days
	return New(cfg).Data()
}

// QuickWorld returns the default roster's grid geometry as GeoJSON bytes.
func QuickWorld() []byte {
	raw, err := NewDefault().World(10).MarshalJSON()
	if err != nil {
		panic(fmt.Sprintf("marshal world: %v", err))
	}
	return raw
}
