package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/pandemap/internal/fixture"
	"github.com/vanderheijden86/pandemap/pkg/model"
)

// AssertAscendingDates verifies dates are unique and strictly increasing.
func AssertAscendingDates(t *testing.T, dates []string) {
	t.Helper()
	for i := 1; i < len(dates); i++ {
		if dates[i] <= dates[i-1] {
			t.Errorf("dates not ascending at %d: %s after %s", i, dates[i], dates[i-1])
		}
	}
}

// AssertCumulative verifies no country's cases or deaths go down between
// consecutive snapshots it appears in.
func AssertCumulative(t *testing.T, d *fixture.Data) {
	t.Helper()
	last := make(map[string]model.CountryRecord)
	for _, day := range d.Dates {
		for _, rec := range d.Snapshots[day] {
			if prev, ok := last[rec.ISOCode]; ok {
				if rec.Cases < prev.Cases || rec.Deaths < prev.Deaths {
					t.Errorf("%s decreased on %s: %d/%d -> %d/%d",
						rec.Country, day, prev.Cases, prev.Deaths, rec.Cases, rec.Deaths)
				}
			}
			last[rec.ISOCode] = rec
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// GoldenFile compares output against a file under testdata.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN is set, golden files are rewritten instead of compared.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()
	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if string(expected) == actual {
		return
	}

	want := strings.Split(string(expected), "\n")
	got := strings.Split(actual, "\n")
	for i := 0; i < len(want) || i < len(got); i++ {
		var w, a string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			a = got[i]
		}
		if w != a {
			g.t.Errorf("golden file %s differs at line %d:\nexpected: %s\nactual:   %s", g.name, i+1, w, a)
			return
		}
	}
}

// WriteDataFile writes a dataset in the fixture format and returns its path.
func WriteDataFile(t *testing.T, dir string, d *fixture.Data) string {
	t.Helper()
	raw, err := MarshalData(d)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := filepath.Join(dir, "fixture.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// WriteWorldFile writes the default grid geometry and returns its path.
func WriteWorldFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "world.geojson")
	if err := os.WriteFile(path, QuickWorld(), 0o644); err != nil {
		t.Fatalf("write world: %v", err)
	}
	return path
}
