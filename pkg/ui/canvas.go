package ui

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

// upperHalf draws the top pixel of a cell in the foreground color and the
// bottom pixel in the background color.
const upperHalf = '▀'

type cell struct {
	ch   rune
	fg   string
	bg   string
	bold bool
}

type cellStyle struct {
	fg, bg string
	bold   bool
}

// Canvas is a grid of terminal cells. The map is rasterised at one pixel
// per column and two pixels per row, then overlays are drawn as text.
type Canvas struct {
	cols, rows int
	cells      []cell
}

// NewCanvas creates a blank canvas filled with bg.
func NewCanvas(cols, rows int, bg string) *Canvas {
	c := &Canvas{cols: max(cols, 0), rows: max(rows, 0)}
	c.cells = make([]cell, c.cols*c.rows)
	for i := range c.cells {
		c.cells[i] = cell{ch: ' ', bg: bg}
	}
	return c
}

// CanvasFromImage packs img into half-block cells. img should be cols
// pixels wide and 2*rows pixels high; missing pixels are left blank.
func CanvasFromImage(img image.Image, cols, rows int) *Canvas {
	c := NewCanvas(cols, rows, "")
	b := img.Bounds()
	hex := func(x, y int) string {
		p := image.Pt(b.Min.X+x, b.Min.Y+y)
		if !p.In(b) {
			return ""
		}
		col, ok := colorful.MakeColor(img.At(p.X, p.Y))
		if !ok {
			return ""
		}
		return col.Hex()
	}
	for row := 0; row < c.rows; row++ {
		for col := 0; col < c.cols; col++ {
			c.cells[row*c.cols+col] = cell{
				ch: upperHalf,
				fg: hex(col, 2*row),
				bg: hex(col, 2*row+1),
			}
		}
	}
	return c
}

// Size returns the canvas dimensions in cells.
func (c *Canvas) Size() (cols, rows int) { return c.cols, c.rows }

func (c *Canvas) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return nil
	}
	return &c.cells[row*c.cols+col]
}

// Fill paints a rectangle of blank cells.
func (c *Canvas) Fill(r cellRect, bg string) {
	for row := r.row; row < r.row+r.h; row++ {
		for col := r.col; col < r.col+r.w; col++ {
			if p := c.at(col, row); p != nil {
				*p = cell{ch: ' ', bg: bg}
			}
		}
	}
}

// Text writes s starting at (col, row), clipped to the canvas. Wide runes
// take two cells. It returns the number of cells written.
func (c *Canvas) Text(col, row int, s string, fg, bg string, bold bool) int {
	written := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > c.cols {
			break
		}
		if p := c.at(col, row); p != nil {
			*p = cell{ch: r, fg: fg, bg: bg, bold: bold}
		}
		for i := 1; i < w; i++ {
			if p := c.at(col+i, row); p != nil {
				*p = cell{ch: 0, fg: fg, bg: bg}
			}
		}
		col += w
		written += w
	}
	return written
}

// Box draws a filled box with a rounded border.
func (c *Canvas) Box(r cellRect, border, bg string) {
	if r.w < 2 || r.h < 2 {
		return
	}
	c.Fill(r, bg)
	right, bottom := r.col+r.w-1, r.row+r.h-1
	for col := r.col + 1; col < right; col++ {
		c.Text(col, r.row, "─", border, bg, false)
		c.Text(col, bottom, "─", border, bg, false)
	}
	for row := r.row + 1; row < bottom; row++ {
		c.Text(r.col, row, "│", border, bg, false)
		c.Text(right, row, "│", border, bg, false)
	}
	c.Text(r.col, r.row, "╭", border, bg, false)
	c.Text(right, r.row, "╮", border, bg, false)
	c.Text(r.col, bottom, "╰", border, bg, false)
	c.Text(right, bottom, "╯", border, bg, false)
}

// Lines renders each row, grouping runs of equally styled cells.
func (c *Canvas) Lines() []string {
	styles := make(map[cellStyle]lipgloss.Style)
	styleFor := func(k cellStyle) lipgloss.Style {
		if s, ok := styles[k]; ok {
			return s
		}
		s := lipgloss.NewStyle().Bold(k.bold)
		if k.fg != "" {
			s = s.Foreground(lipgloss.Color(k.fg))
		}
		if k.bg != "" {
			s = s.Background(lipgloss.Color(k.bg))
		}
		styles[k] = s
		return s
	}

	lines := make([]string, c.rows)
	var line, run strings.Builder
	for row := 0; row < c.rows; row++ {
		line.Reset()
		run.Reset()
		var cur cellStyle
		flush := func() {
			if run.Len() > 0 {
				line.WriteString(styleFor(cur).Render(run.String()))
				run.Reset()
			}
		}
		for col := 0; col < c.cols; col++ {
			p := c.cells[row*c.cols+col]
			if p.ch == 0 {
				continue
			}
			k := cellStyle{fg: p.fg, bg: p.bg, bold: p.bold}
			if k != cur {
				flush()
				cur = k
			}
			run.WriteRune(p.ch)
		}
		flush()
		lines[row] = line.String()
	}
	return lines
}

// String joins the rendered rows.
func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

// cellRect is a rectangle in cells.
type cellRect struct {
	col, row, w, h int
}

func (r cellRect) contains(col, row int) bool {
	return col >= r.col && col < r.col+r.w && row >= r.row && row < r.row+r.h
}
