package resolver

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/pandemap/pkg/model"
)

func dataset(names ...string) *model.MapDataset {
	ds := &model.MapDataset{Date: "2021-01-01"}
	for i, n := range names {
		ds.Countries = append(ds.Countries, model.CountryRecord{Country: n, Cases: int64(i + 1)})
	}
	return ds
}

func TestResolve(t *testing.T) {
	ds := dataset("United States", "United Kingdom", "Czechia", "Russia", "Korea, South")

	tests := []struct {
		query string
		want  string
		found bool
	}{
		{"United States", "United States", true},
		{"  united states ", "United States", true},
		{"USA", "United States", true},
		{"U.S.A.", "United States", true},
		{"United States of America", "United States", true},
		{"Great Britain", "United Kingdom", true},
		{"Czech Republic", "Czechia", true},
		{"Russian Federation", "Russia", true},
		{"Atlantis", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec, ok := Resolve(tt.query, ds)
			if ok != tt.found {
				t.Fatalf("Resolve(%q) found = %v, want %v", tt.query, ok, tt.found)
			}
			if ok && rec.Country != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.query, rec.Country, tt.want)
			}
		})
	}
}

func TestResolveExactBeatsAlias(t *testing.T) {
	// "Korea" is an alias of "republic of korea"; an exact record must win.
	ds := dataset("Republic of Korea", "Korea")
	rec, ok := Resolve("korea", ds)
	if !ok || rec.Country != "Korea" {
		t.Fatalf("Resolve(korea) = %+v, %v", rec, ok)
	}
}

func TestResolveNilDataset(t *testing.T) {
	if _, ok := Resolve("USA", nil); ok {
		t.Fatal("nil dataset must not match")
	}
}

func TestLookupNotFound(t *testing.T) {
	_, err := Lookup("Atlantis", dataset("France"))
	var nf *DataNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *DataNotFoundError", err)
	}
	if nf.Name != "Atlantis" || nf.Date != "2021-01-01" {
		t.Errorf("error = %+v", nf)
	}
}

func TestCanonical(t *testing.T) {
	if Canonical("U.K.") != Canonical("United Kingdom") {
		t.Error("U.K. and United Kingdom should share a canonical key")
	}
	if Canonical("France") != "france" {
		t.Errorf("Canonical(France) = %q", Canonical("France"))
	}
}

func TestResolveDeterministic(t *testing.T) {
	ds := dataset("United States", "France", "Germany", "Brazil")
	names := []string{"usa", "France", "germany", "Atlantis", "U.S.A", "brazil"}
	rapid.Check(t, func(t *rapid.T) {
		q := rapid.SampledFrom(names).Draw(t, "query")
		a, okA := Resolve(q, ds)
		b, okB := Resolve(q, ds)
		if okA != okB || a != b {
			t.Fatalf("Resolve(%q) not deterministic", q)
		}
		if okA {
			if _, err := Lookup(q, ds); err != nil {
				t.Fatalf("Lookup(%q) failed after Resolve succeeded: %v", q, err)
			}
		}
	})
}
