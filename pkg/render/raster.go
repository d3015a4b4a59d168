package render

import (
	"image"
	"io"

	"git.sr.ht/~sbinet/gg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/pandemap/pkg/mapview"
)

// Raster draws into an in-memory RGBA image.
type Raster struct {
	dc *gg.Context
}

// NewRaster allocates a width x height image.
func NewRaster(width, height int) *Raster {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	dc := gg.NewContext(width, height)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetFillRule(gg.FillRuleEvenOdd)
	return &Raster{dc: dc}
}

func (r *Raster) Size() (float64, float64) {
	return float64(r.dc.Width()), float64(r.dc.Height())
}

func (r *Raster) Clear(bg colorful.Color) {
	r.dc.SetColor(bg)
	r.dc.Clear()
}

func (r *Raster) Polygon(rings []orb.Ring, fill, stroke colorful.Color, strokeWidth float64) {
	if len(rings) == 0 {
		return
	}
	for _, ring := range rings {
		r.dc.NewSubPath()
		for i, p := range ring {
			if i == 0 {
				r.dc.MoveTo(p[0], p[1])
			} else {
				r.dc.LineTo(p[0], p[1])
			}
		}
		r.dc.ClosePath()
	}
	r.dc.SetColor(fill)
	if strokeWidth <= 0 {
		r.dc.Fill()
		return
	}
	r.dc.FillPreserve()
	r.dc.SetColor(stroke)
	r.dc.SetLineWidth(strokeWidth)
	r.dc.Stroke()
}

func (r *Raster) Rect(rect mapview.Rect, fill, stroke colorful.Color, strokeWidth float64) {
	r.dc.DrawRoundedRectangle(rect.X, rect.Y, rect.W, rect.H, 4)
	r.dc.SetColor(fill)
	if strokeWidth <= 0 {
		r.dc.Fill()
		return
	}
	r.dc.FillPreserve()
	r.dc.SetColor(stroke)
	r.dc.SetLineWidth(strokeWidth)
	r.dc.Stroke()
}

func (r *Raster) Text(x, y float64, s string, c colorful.Color, _ bool) {
	r.dc.SetColor(c)
	r.dc.DrawString(s, x, y)
}

func (r *Raster) TextSize(s string) (float64, float64) {
	return r.dc.MeasureString(s)
}

// Image returns the rendered image.
func (r *Raster) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the image as PNG.
func (r *Raster) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }
