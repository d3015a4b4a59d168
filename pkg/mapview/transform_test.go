package mapview

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"pgregory.net/rapid"
)

func TestTransformClamp(t *testing.T) {
	const w, h = 800.0, 400.0
	tests := []struct {
		name string
		in   Transform
		want Transform
	}{
		{"identity", Identity, Identity},
		{"zoom below min", Transform{K: 0.5, X: 10, Y: 10}, Transform{K: 1}},
		{"zoom above max", Transform{K: 20}, Transform{K: 8}},
		{"pan right past edge", Transform{K: 2, X: 50, Y: -10}, Transform{K: 2, X: 0, Y: -10}},
		{"pan left past edge", Transform{K: 2, X: -5000, Y: -5000}, Transform{K: 2, X: -800, Y: -400}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp(w, h); got != tt.want {
				t.Errorf("Clamp(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestZoomAtKeepsFocus(t *testing.T) {
	const w, h = 800.0, 400.0
	tr := Identity.ZoomAt(2, 400, 200, w, h)
	if tr.K != 2 {
		t.Fatalf("K = %v", tr.K)
	}
	focus := tr.Apply(orb.Point{400, 200})
	if math.Abs(focus[0]-400) > 1e-9 || math.Abs(focus[1]-200) > 1e-9 {
		t.Errorf("focus moved to %v", focus)
	}
	back := tr.Invert(focus)
	if math.Abs(back[0]-400) > 1e-9 || math.Abs(back[1]-200) > 1e-9 {
		t.Errorf("Invert = %v", back)
	}
}

// The scaled map must always cover the viewport.
func TestTransformNeverLeavesViewport(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.Float64Range(10, 2000).Draw(t, "w")
		h := rapid.Float64Range(10, 2000).Draw(t, "h")
		tr := Identity
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				f := rapid.SampledFrom([]float64{ZoomFactor, 1 / ZoomFactor}).Draw(t, "factor")
				tr = tr.ZoomAt(f, rapid.Float64Range(0, w).Draw(t, "fx"), rapid.Float64Range(0, h).Draw(t, "fy"), w, h)
			case 1:
				tr = tr.Pan(rapid.Float64Range(-3000, 3000).Draw(t, "dx"), rapid.Float64Range(-3000, 3000).Draw(t, "dy"), w, h)
			case 2:
				w = rapid.Float64Range(10, 2000).Draw(t, "w2")
				h = rapid.Float64Range(10, 2000).Draw(t, "h2")
				tr = tr.Clamp(w, h)
			}
			if tr.K < MinZoom || tr.K > MaxZoom {
				t.Fatalf("K out of range: %v", tr.K)
			}
			tl := tr.Apply(orb.Point{0, 0})
			br := tr.Apply(orb.Point{w, h})
			const eps = 1e-6
			if tl[0] > eps || tl[1] > eps || br[0] < w-eps || br[1] < h-eps {
				t.Fatalf("map %v-%v does not cover %vx%v (%+v)", tl, br, w, h, tr)
			}
		}
	})
}
