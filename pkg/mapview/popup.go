package mapview

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/vanderheijden86/pandemap/pkg/model"
)

// PopupMargin keeps popups this far from the viewport edges.
const PopupMargin = 10.0

// PopupOffset is the distance between the pointer and the popup corner.
const PopupOffset = 10.0

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// PlacePopup positions a w x h popup near the anchor (ax, ay), keeping it
// inside a vw x vh viewport with margin on every side. A popup that does not
// fit is pinned at the margin.
func PlacePopup(ax, ay, w, h, vw, vh, margin float64) Rect {
	x := ax + PopupOffset
	y := ay + PopupOffset
	if x+w > vw-margin {
		x = vw - margin - w
	}
	if y+h > vh-margin {
		y = vh - margin - h
	}
	if x < margin {
		x = margin
	}
	if y < margin {
		y = margin
	}
	return Rect{X: x, Y: y, W: w, H: h}
}

// Popup is the open detail box for one country.
type Popup struct {
	Feature int
	Record  model.CountryRecord
	Date    string
	AnchorX float64
	AnchorY float64
}

// Title is the popup heading.
func (p *Popup) Title() string { return p.Record.Country }

// Lines returns the popup body rows.
func (p *Popup) Lines() []string {
	r := p.Record
	lines := []string{
		"Total Cases: " + humanize.Comma(r.Cases),
		"Total Deaths: " + humanize.Comma(r.Deaths),
		"Cases per Million: " + humanize.CommafWithDigits(r.CasesPerMillion, 2),
		"Deaths per Million: " + humanize.CommafWithDigits(r.DeathsPerMillion, 2),
	}
	if p.Date != "" {
		lines = append(lines, "Date: "+p.Date)
	}
	return lines
}

// Text is the popup as plain text, for the clipboard.
func (p *Popup) Text() string {
	s := p.Title()
	for _, l := range p.Lines() {
		s += "\n" + l
	}
	return s
}

func (p *Popup) String() string {
	return fmt.Sprintf("%s (%s)", p.Record.Country, p.Date)
}
