package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# pandemap

Choropleth of COVID-19 **cases per million** by country.

## Timeline

| Key | Action |
| --- | --- |
| ← / p / [ | previous available date |
| → / n / ] | next available date |
| G / End | latest date |
| g / / | go to a date (the nearest available one is used) |

## Map

| Key | Action |
| --- | --- |
| + / - | zoom in / out |
| 0 | reset zoom |
| h j k l | pan |
| click | open the country popup |
| wheel | zoom at the pointer |
| drag | pan |

## Popup and display

| Key | Action |
| --- | --- |
| y | copy the popup figures |
| Esc / x | close popup, dismiss banner |
| t | toggle dark mode (remembered) |
| ? | toggle this help |
| q | quit |
`

// renderHelp renders the help screen for the given width and mode. On a
// glamour failure the raw markdown is returned.
func renderHelp(width int, dark bool) string {
	style := "light"
	if dark {
		style = "dark"
	}
	wrap := min(max(width-4, 20), 80)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	// Strip trailing whitespace/newlines that glamour adds
	return strings.TrimRight(out, " \n")
}
