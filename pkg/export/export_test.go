package export

import (
	"database/sql"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/pandemap/pkg/geo"
	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/model"
)

const square = `{"type":"FeatureCollection","features":[
 {"type":"Feature","id":"250","properties":{"name":"France"},
  "geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}}]}`

func testDataset() *model.MapDataset {
	return &model.MapDataset{Date: "2021-01-01", Countries: []model.CountryRecord{
		{Country: "France", ISOCode: "250", Cases: 2697014, Deaths: 64759, CasesPerMillion: 41296, DeathsPerMillion: 991.6},
		{Country: "Czechia", ISOCode: "203", Cases: 1, CasesPerMillion: 250000},
	}}
}

func testRenderer(t *testing.T) *mapview.Renderer {
	t.Helper()
	w, err := geo.Parse([]byte(square))
	if err != nil {
		t.Fatal(err)
	}
	r := mapview.New(w, 100, 100, mapview.WithTransition(0))
	r.SetDataset(testDataset(), time.Now())
	return r
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]string{
		"map.svg":     FormatSVG,
		"out/MAP.PNG": FormatPNG,
		"data.db":     FormatSQLite,
		"x.sqlite3":   FormatSQLite,
	}
	for path, want := range tests {
		got, err := DetectFormat(path)
		if err != nil || got != want {
			t.Errorf("DetectFormat(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	for _, bad := range []string{"map", "map.gif"} {
		if _, err := DetectFormat(bad); err == nil {
			t.Errorf("DetectFormat(%q) should fail", bad)
		}
	}
}

func TestSaveSnapshotSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "map.svg")
	err := SaveSnapshot(SnapshotOptions{Path: path, Renderer: testRenderer(t), Width: 320, Height: 200, Title: "2021-01-01"})
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(raw)
	for _, want := range []string{`width="320"`, mapview.LegendTitle, "2021-01-01", strings.ToLower(mapview.Moderate.Hex())} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestSaveSnapshotPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.png")
	if err := SaveSnapshot(SnapshotOptions{Path: path, Renderer: testRenderer(t), Width: 64, Height: 48}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func TestSaveSnapshotRequiresInputs(t *testing.T) {
	dir := t.TempDir()
	if err := SaveSnapshot(SnapshotOptions{Path: filepath.Join(dir, "m.svg")}); err == nil {
		t.Error("svg without renderer should fail")
	}
	if err := SaveSnapshot(SnapshotOptions{Path: filepath.Join(dir, "m.db")}); err == nil {
		t.Error("sqlite without dataset should fail")
	}
	if err := SaveSnapshot(SnapshotOptions{}); err == nil {
		t.Error("missing path should fail")
	}
}

func TestExportSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")
	stats := &model.GlobalStats{TotalCases: 2697015, TotalDeaths: 64759, TotalCountries: 2}
	for i := 0; i < 2; i++ { // second run replaces the file
		if err := SaveSnapshot(SnapshotOptions{Path: path, Dataset: testDataset(), Stats: stats, Source: "http://localhost:3000"}); err != nil {
			t.Fatalf("export %d: %v", i, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM countries`).Scan(&n); err != nil || n != 2 {
		t.Fatalf("countries = %d, %v", n, err)
	}
	var bucket string
	if err := db.QueryRow(`SELECT bucket FROM countries WHERE country = 'Czechia'`).Scan(&bucket); err != nil || bucket != "critical" {
		t.Errorf("bucket = %q, %v", bucket, err)
	}
	var date string
	var total int64
	if err := db.QueryRow(`SELECT date, total_cases FROM global_stats`).Scan(&date, &total); err != nil {
		t.Fatal(err)
	}
	if date != "2021-01-01" || total != 2697015 {
		t.Errorf("stats row = %s %d", date, total)
	}
	var source string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'source'`).Scan(&source); err != nil || source != "http://localhost:3000" {
		t.Errorf("source = %q, %v", source, err)
	}
}
