package ui

import (
	"math"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/render"
)

// mapLayout places the map inside the terminal. One column is one pixel
// wide and one row is two pixels high.
type mapLayout struct {
	top  int
	cols int
	rows int
}

func layoutFor(width, height int) mapLayout {
	return mapLayout{
		top:  headerRows,
		cols: max(width, 1),
		rows: max(height-headerRows-footerRows, 1),
	}
}

func (l mapLayout) pixelSize() (w, h float64) {
	return float64(l.cols), float64(2 * l.rows)
}

// toPixel converts a terminal cell to the map pixel at its centre.
func (l mapLayout) toPixel(col, row int) (x, y float64, ok bool) {
	r := row - l.top
	if col < 0 || col >= l.cols || r < 0 || r >= l.rows {
		return 0, 0, false
	}
	return float64(col) + 0.5, float64(2*r) + 1, true
}

// mapFrame is one rendered map plus the hit areas of its overlays.
type mapFrame struct {
	canvas *Canvas
	popup  cellRect
	close  cellRect
}

// drawMap rasterises the renderer and overlays the legend and popup.
func drawMap(r *mapview.Renderer, l mapLayout, th Theme, now time.Time) mapFrame {
	w, h := l.pixelSize()
	if rw, rh := r.Size(); rw != w || rh != h {
		r.Resize(w, h)
	}
	ras := render.NewRaster(l.cols, 2*l.rows)
	r.Draw(ras, now, mapview.DrawOptions{})

	f := mapFrame{canvas: CanvasFromImage(ras.Image(), l.cols, l.rows)}
	drawLegend(f.canvas, th)
	if p := r.Popup(); p != nil {
		f.popup, f.close = drawPopup(f.canvas, p, th)
	}
	return f
}

func drawLegend(c *Canvas, th Theme) {
	buckets := mapview.Legend()
	width := runewidth.StringWidth(mapview.LegendTitle)
	for _, b := range buckets {
		width = max(width, runewidth.StringWidth(b.Label())+3)
	}
	cols, rows := c.Size()
	box := cellRect{w: width + 4, h: len(buckets) + 3}
	if box.w > cols || box.h > rows {
		return
	}
	box.col = max(cols-box.w-1, 0)
	box.row = max(rows-box.h, 0)
	c.Box(box, th.Muted, th.PanelBg)

	c.Text(box.col+2, box.row+1, mapview.LegendTitle, th.Text, th.PanelBg, true)
	for i, b := range buckets {
		row := box.row + 2 + i
		c.Text(box.col+2, row, "██", b.Hex(), th.PanelBg, false)
		c.Text(box.col+5, row, b.Label(), th.Text, th.PanelBg, false)
	}
}

const closeLabel = "[x]"

// drawPopup places the popup box next to its anchor, clamped inside the
// map, and returns the box and its close button.
func drawPopup(c *Canvas, p *mapview.Popup, th Theme) (box, closeBtn cellRect) {
	lines := p.Lines()
	width := runewidth.StringWidth(p.Title()) + runewidth.StringWidth(closeLabel) + 1
	for _, l := range lines {
		width = max(width, runewidth.StringWidth(l))
	}
	cols, rows := c.Size()
	w, h := width+4, len(lines)+3

	// Placement runs in map pixels so the popup keeps its offset from the
	// pointer at every terminal size.
	rect := mapview.PlacePopup(p.AnchorX, p.AnchorY,
		float64(w), float64(2*h), float64(cols), float64(2*rows), 2)
	box = cellRect{
		col: int(math.Round(rect.X)),
		row: int(math.Round(rect.Y / 2)),
		w:   w,
		h:   h,
	}
	c.Box(box, th.Muted, th.PanelBg)
	c.Text(box.col+2, box.row+1, p.Title(), th.Text, th.PanelBg, true)
	closeBtn = cellRect{col: box.col + box.w - 2 - len(closeLabel), row: box.row + 1, w: len(closeLabel), h: 1}
	c.Text(closeBtn.col, closeBtn.row, closeLabel, th.Danger, th.PanelBg, true)
	for i, l := range lines {
		c.Text(box.col+2, box.row+2+i, l, th.Muted, th.PanelBg, false)
	}
	return box, closeBtn
}
