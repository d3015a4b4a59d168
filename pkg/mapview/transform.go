package mapview

import (
	"math"

	"github.com/paulmach/orb"
)

// Zoom limits and the step used by the zoom controls.
const (
	MinZoom    = 1.0
	MaxZoom    = 8.0
	ZoomFactor = 1.5
)

// Transform is a uniform scale K followed by a translation (X, Y), applied
// to projected viewport coordinates.
type Transform struct {
	K, X, Y float64
}

// Identity is the unzoomed transform.
var Identity = Transform{K: 1}

// Apply maps a projected point to the screen.
func (t Transform) Apply(p orb.Point) orb.Point {
	return orb.Point{p[0]*t.K + t.X, p[1]*t.K + t.Y}
}

// Invert maps a screen point back to projected coordinates.
func (t Transform) Invert(p orb.Point) orb.Point {
	k := t.K
	if k == 0 {
		k = 1
	}
	return orb.Point{(p[0] - t.X) / k, (p[1] - t.Y) / k}
}

// Clamp bounds K to [MinZoom, MaxZoom] and the translation so the scaled
// map always covers a w x h viewport: X in [w(1-K), 0], Y in [h(1-K), 0].
func (t Transform) Clamp(w, h float64) Transform {
	if t.K == 0 || math.IsNaN(t.K) {
		t.K = 1
	}
	t.K = math.Max(MinZoom, math.Min(MaxZoom, t.K))
	t.X = clamp(t.X, w*(1-t.K), 0)
	t.Y = clamp(t.Y, h*(1-t.K), 0)
	return t
}

// ZoomAt scales by factor keeping the screen point (fx, fy) fixed, then
// clamps.
func (t Transform) ZoomAt(factor, fx, fy, w, h float64) Transform {
	k := math.Max(MinZoom, math.Min(MaxZoom, t.K*factor))
	ratio := k / t.K
	next := Transform{
		K: k,
		X: fx - (fx-t.X)*ratio,
		Y: fy - (fy-t.Y)*ratio,
	}
	return next.Clamp(w, h)
}

// Pan translates by (dx, dy), then clamps.
func (t Transform) Pan(dx, dy, w, h float64) Transform {
	t.X += dx
	t.Y += dy
	return t.Clamp(w, h)
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, v))
}
