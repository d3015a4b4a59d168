// Package render provides the SVG and raster drawing surfaces for the map.
package render

import (
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/paulmach/orb"

	"github.com/vanderheijden86/pandemap/pkg/mapview"
)

// Approximate monospace metrics used to size SVG overlays.
const (
	svgCharWidth  = 7.0
	svgLineHeight = 13.0
)

// SVG streams drawing calls to an SVG document.
type SVG struct {
	canvas *svg.SVG
	w, h   int
	closed bool
}

// NewSVG starts a width x height document on w. Call Close to finish it.
func NewSVG(w io.Writer, width, height int) *SVG {
	canvas := svg.New(w)
	canvas.Start(width, height)
	return &SVG{canvas: canvas, w: width, h: height}
}

func (s *SVG) Size() (float64, float64) { return float64(s.w), float64(s.h) }

func (s *SVG) Clear(bg colorful.Color) {
	s.canvas.Rect(0, 0, s.w, s.h, "fill:"+bg.Hex())
}

func (s *SVG) Polygon(rings []orb.Ring, fill, stroke colorful.Color, strokeWidth float64) {
	if len(rings) == 0 {
		return
	}
	var d strings.Builder
	for _, ring := range rings {
		for i, p := range ring {
			if i == 0 {
				fmt.Fprintf(&d, "M%.2f %.2f", p[0], p[1])
			} else {
				fmt.Fprintf(&d, "L%.2f %.2f", p[0], p[1])
			}
		}
		d.WriteString("Z")
	}
	style := fmt.Sprintf("fill:%s;fill-rule:evenodd", fill.Hex())
	if strokeWidth > 0 {
		style += fmt.Sprintf(";stroke:%s;stroke-width:%.2g", stroke.Hex(), strokeWidth)
	}
	s.canvas.Path(d.String(), style)
}

func (s *SVG) Rect(r mapview.Rect, fill, stroke colorful.Color, strokeWidth float64) {
	style := "fill:" + fill.Hex()
	if strokeWidth > 0 {
		style += fmt.Sprintf(";stroke:%s;stroke-width:%.2g", stroke.Hex(), strokeWidth)
	}
	s.canvas.Roundrect(int(r.X), int(r.Y), int(r.W), int(r.H), 4, 4, style)
}

func (s *SVG) Text(x, y float64, str string, c colorful.Color, bold bool) {
	style := fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", c.Hex())
	if bold {
		style += ";font-weight:bold"
	}
	s.canvas.Text(int(x), int(y), str, style)
}

func (s *SVG) TextSize(str string) (float64, float64) {
	return float64(runewidth.StringWidth(str)) * svgCharWidth, svgLineHeight
}

// Close ends the document. It is safe to call more than once.
func (s *SVG) Close() error {
	if !s.closed {
		s.canvas.End()
		s.closed = true
	}
	return nil
}
