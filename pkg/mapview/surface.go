package mapview

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
)

// Surface is a drawing target. Coordinates are viewport pixels, y down.
type Surface interface {
	Size() (w, h float64)
	Clear(bg colorful.Color)
	// Polygon fills the rings with the even-odd rule and strokes them when
	// strokeWidth > 0.
	Polygon(rings []orb.Ring, fill, stroke colorful.Color, strokeWidth float64)
	Rect(r Rect, fill, stroke colorful.Color, strokeWidth float64)
	// Text draws s with its baseline-left corner at (x, y).
	Text(x, y float64, s string, c colorful.Color, bold bool)
	// TextSize measures s.
	TextSize(s string) (w, h float64)
}

// Theme holds the non-data colours.
type Theme struct {
	Background colorful.Color
	Border     colorful.Color
	Selected   colorful.Color
	Panel      colorful.Color
	PanelText  colorful.Color
	Muted      colorful.Color
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

var (
	lightTheme = Theme{
		Background: mustHex("#F5F7FA"),
		Border:     mustHex("#FFFFFF"),
		Selected:   mustHex("#000000"),
		Panel:      mustHex("#FFFFFF"),
		PanelText:  mustHex("#222222"),
		Muted:      mustHex("#666666"),
	}
	darkTheme = Theme{
		Background: mustHex("#1E1E1E"),
		Border:     mustHex("#333333"),
		Selected:   mustHex("#FFFFFF"),
		Panel:      mustHex("#2D2D2D"),
		PanelText:  mustHex("#EEEEEE"),
		Muted:      mustHex("#AAAAAA"),
	}
)

// ThemeFor returns the dark or light theme.
func ThemeFor(dark bool) Theme {
	if dark {
		return darkTheme
	}
	return lightTheme
}
