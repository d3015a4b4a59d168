// Package geo loads world boundary geometry and projects it onto a
// viewport.
//
// Shapes are kept in Web Mercator metres after loading, so a viewport
// resize only refits a Projection and never touches the geometry again.
package geo

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"

	"github.com/vanderheijden86/pandemap/pkg/api"
	"github.com/vanderheijden86/pandemap/pkg/metrics"
)

// MaxLatitude bounds projected latitudes; Mercator diverges at the poles.
const MaxLatitude = 85.0

// Feature is one country shape.
type Feature struct {
	ID    string // ISO 3166 code from the feature id, numeric codes zero-padded
	Name  string // properties.name
	Shape orb.MultiPolygon
	Bound orb.Bound
}

// World is the loaded set of country shapes.
type World struct {
	Features []Feature
	Bound    orb.Bound
}

// Fetcher is the subset of api.Client used to download geometry.
type Fetcher interface {
	FetchJSON(ctx context.Context, path string, v any, opts ...api.FetchOption) error
}

// Load reads geometry from src, which is either an http(s) URL fetched
// through f or a local file path.
func Load(ctx context.Context, f Fetcher, src string) (*World, error) {
	defer metrics.Timer(metrics.GeometryLoad)()

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		if f == nil {
			return nil, fmt.Errorf("no fetcher for %s", src)
		}
		var fc geojson.FeatureCollection
		if err := f.FetchJSON(ctx, src, &fc, api.Silent()); err != nil {
			return nil, fmt.Errorf("fetching geometry: %w", err)
		}
		return FromCollection(&fc)
	}
	return LoadFile(src)
}

// LoadFile reads a GeoJSON FeatureCollection from disk.
func LoadFile(path string) (*World, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geometry: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a GeoJSON FeatureCollection.
func Parse(raw []byte) (*World, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing geometry: %w", err)
	}
	return FromCollection(fc)
}

// FromCollection projects every polygonal feature of fc. Other geometry
// types are skipped.
func FromCollection(fc *geojson.FeatureCollection) (*World, error) {
	w := &World{}
	first := true
	for _, f := range fc.Features {
		mp, ok := multiPolygon(f.Geometry)
		if !ok {
			continue
		}
		mp = toMercator(mp)
		feat := Feature{
			ID:    featureID(f),
			Name:  f.Properties.MustString("name", ""),
			Shape: mp,
			Bound: mp.Bound(),
		}
		if first {
			w.Bound = feat.Bound
			first = false
		} else {
			w.Bound = w.Bound.Union(feat.Bound)
		}
		w.Features = append(w.Features, feat)
	}
	if len(w.Features) == 0 {
		return nil, fmt.Errorf("geometry has no polygon features")
	}
	return w, nil
}

// HitTest returns the index of the feature containing p (Mercator metres),
// or -1.
func (w *World) HitTest(p orb.Point) int {
	for i := range w.Features {
		f := &w.Features[i]
		if !f.Bound.Contains(p) {
			continue
		}
		if planar.MultiPolygonContains(f.Shape, p) {
			return i
		}
	}
	return -1
}

func multiPolygon(g orb.Geometry) (orb.MultiPolygon, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{v}, true
	case orb.MultiPolygon:
		return v, true
	default:
		return nil, false
	}
}

func toMercator(mp orb.MultiPolygon) orb.MultiPolygon {
	out := make(orb.MultiPolygon, len(mp))
	for i, poly := range mp {
		out[i] = make(orb.Polygon, len(poly))
		for j, ring := range poly {
			r := make(orb.Ring, len(ring))
			for k, p := range ring {
				p[1] = math.Max(-MaxLatitude, math.Min(MaxLatitude, p[1]))
				r[k] = project.WGS84.ToMercator(p)
			}
			out[i][j] = r
		}
	}
	return out
}

func featureID(f *geojson.Feature) string {
	switch v := f.ID.(type) {
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%03d", n)
		}
		return v
	case float64:
		return fmt.Sprintf("%03d", int(v))
	case nil:
		return f.Properties.MustString("iso_n3", f.Properties.MustString("id", ""))
	default:
		return fmt.Sprint(v)
	}
}
