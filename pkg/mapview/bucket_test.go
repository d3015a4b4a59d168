package mapview

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/pandemap/pkg/model"
)

func TestBucketBoundaries(t *testing.T) {
	tests := []struct {
		name string
		rec  model.CountryRecord
		ok   bool
		want Bucket
	}{
		{"9999", model.CountryRecord{Cases: 1, CasesPerMillion: 9999}, true, Low},
		{"10000", model.CountryRecord{Cases: 1, CasesPerMillion: 10000}, true, Moderate},
		{"49999", model.CountryRecord{Cases: 1, CasesPerMillion: 49999}, true, Moderate},
		{"50000", model.CountryRecord{Cases: 1, CasesPerMillion: 50000}, true, High},
		{"99999.9", model.CountryRecord{Cases: 1, CasesPerMillion: 99999.9}, true, High},
		{"100000", model.CountryRecord{Cases: 1, CasesPerMillion: 100000}, true, VeryHigh},
		{"199999", model.CountryRecord{Cases: 1, CasesPerMillion: 199999}, true, VeryHigh},
		{"200000", model.CountryRecord{Cases: 1, CasesPerMillion: 200000}, true, Critical},
		{"huge", model.CountryRecord{Cases: 1, CasesPerMillion: 1e9}, true, Critical},
		{"absent", model.CountryRecord{}, false, NoData},
		{"zero cases", model.CountryRecord{Cases: 0, CasesPerMillion: 300000}, true, NoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketFor(tt.rec, tt.ok); got != tt.want {
				t.Errorf("BucketFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBucketColors(t *testing.T) {
	want := map[Bucket]string{
		NoData:   "#cccccc",
		Low:      "#4caf50",
		Moderate: "#8bc34a",
		High:     "#ffc107",
		VeryHigh: "#ff9800",
		Critical: "#f44336",
	}
	for b, hex := range want {
		if got := b.Color().Hex(); got != hex {
			t.Errorf("%v colour = %s, want %s", b, got, hex)
		}
	}
	if n := len(Legend()); n != 5 {
		t.Errorf("legend entries = %d, want 5", n)
	}
}

func TestBucketMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(0, 1e6).Draw(t, "a")
		b := rapid.Float64Range(0, 1e6).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		if BucketForRate(a) > BucketForRate(b) {
			t.Fatalf("bucket(%v)=%v > bucket(%v)=%v", a, BucketForRate(a), b, BucketForRate(b))
		}
	})
}
