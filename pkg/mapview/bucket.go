// Package mapview turns the current dataset into a coloured, zoomable
// world map: severity buckets, zoom and pan, selection, popups and the
// recolour transition. It draws onto any Surface.
package mapview

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/vanderheijden86/pandemap/pkg/model"
)

// Bucket is a severity class derived from cases per million.
type Bucket int

const (
	NoData Bucket = iota
	Low
	Moderate
	High
	VeryHigh
	Critical
)

// Lower bounds of each bucket, in cases per million. Bounds are inclusive
// below and exclusive above; Critical is unbounded.
const (
	ModerateFrom = 10_000
	HighFrom     = 50_000
	VeryHighFrom = 100_000
	CriticalFrom = 200_000
)

var bucketInfo = [...]struct {
	label string
	hex   string
}{
	NoData:   {"No data", "#CCCCCC"},
	Low:      {"< 10k", "#4CAF50"},
	Moderate: {"10k - 50k", "#8BC34A"},
	High:     {"50k - 100k", "#FFC107"},
	VeryHigh: {"100k - 200k", "#FF9800"},
	Critical: {"> 200k", "#F44336"},
}

// BucketFor classifies a record. A missing record, or one without cases,
// has no data.
func BucketFor(rec model.CountryRecord, ok bool) Bucket {
	if !ok || rec.Cases <= 0 {
		return NoData
	}
	return BucketForRate(rec.CasesPerMillion)
}

// BucketForRate classifies a cases-per-million figure.
func BucketForRate(perMillion float64) Bucket {
	switch {
	case perMillion >= CriticalFrom:
		return Critical
	case perMillion >= VeryHighFrom:
		return VeryHigh
	case perMillion >= HighFrom:
		return High
	case perMillion >= ModerateFrom:
		return Moderate
	default:
		return Low
	}
}

func (b Bucket) String() string {
	switch b {
	case Low:
		return "low"
	case Moderate:
		return "moderate"
	case High:
		return "high"
	case VeryHigh:
		return "very high"
	case Critical:
		return "critical"
	default:
		return "no data"
	}
}

// Label is the legend text for b.
func (b Bucket) Label() string { return bucketInfo[b].label }

// Hex is the fill colour of b as #RRGGBB.
func (b Bucket) Hex() string { return bucketInfo[b].hex }

// Color is the fill colour of b.
func (b Bucket) Color() colorful.Color {
	c, _ := colorful.Hex(bucketInfo[b].hex)
	return c
}

// LegendTitle heads the legend block.
const LegendTitle = "Cases per Million"

// Legend lists the buckets shown in the legend, lowest first. No-data is
// not listed.
func Legend() []Bucket {
	return []Bucket{Low, Moderate, High, VeryHigh, Critical}
}
