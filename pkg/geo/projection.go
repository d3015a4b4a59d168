package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Projection maps Mercator metres onto a viewport in pixels, y down.
type Projection struct {
	scale  float64
	minX   float64
	maxY   float64
	offX   float64
	offY   float64
	Width  float64
	Height float64
}

// Fit returns the projection that fits b into a width x height viewport,
// preserving aspect ratio and centring the slack.
func Fit(b orb.Bound, width, height float64) Projection {
	p := Projection{Width: width, Height: height, minX: b.Min[0], maxY: b.Max[1]}
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	if dx <= 0 || dy <= 0 || width <= 0 || height <= 0 {
		p.scale = 1
		return p
	}
	p.scale = math.Min(width/dx, height/dy)
	p.offX = (width - dx*p.scale) / 2
	p.offY = (height - dy*p.scale) / 2
	return p
}

// Project maps a Mercator point to the viewport.
func (p Projection) Project(pt orb.Point) orb.Point {
	return orb.Point{
		(pt[0]-p.minX)*p.scale + p.offX,
		(p.maxY-pt[1])*p.scale + p.offY,
	}
}

// Invert maps a viewport point back to Mercator metres.
func (p Projection) Invert(pt orb.Point) orb.Point {
	return orb.Point{
		(pt[0]-p.offX)/p.scale + p.minX,
		p.maxY - (pt[1]-p.offY)/p.scale,
	}
}
