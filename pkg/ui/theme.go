package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background behind the chrome.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// pair is a light/dark color choice. The dashboard has its own dark mode
// toggle, so colors are picked by that flag rather than by the terminal's
// background like lipgloss.AdaptiveColor would.
type pair struct {
	Light string
	Dark  string
}

func (p pair) pick(dark bool) string {
	if dark {
		return p.Dark
	}
	return p.Light
}

// Theme holds the pre-computed chrome styles for one mode.
type Theme struct {
	Dark bool

	Text    string
	Muted   string
	Primary string
	Danger  string
	PanelBg string

	Base      lipgloss.Style
	Header    lipgloss.Style
	Date      lipgloss.Style
	Button    lipgloss.Style
	ButtonOff lipgloss.Style
	Stats     lipgloss.Style
	StatValue lipgloss.Style
	Banner    lipgloss.Style
	Status    lipgloss.Style
	MutedText lipgloss.Style
	Error     lipgloss.Style
	Picker    lipgloss.Style
}

// NewTheme builds the light or dark theme.
func NewTheme(dark bool) Theme {
	t := Theme{
		Dark:    dark,
		Text:    ColorText.pick(dark),
		Muted:   ColorMuted.pick(dark),
		Primary: ColorPrimary.pick(dark),
		Danger:  ColorDanger.pick(dark),
		PanelBg: ColorPanel.pick(dark),
	}

	t.Base = lipgloss.NewStyle().Foreground(ThemeFg(t.Text))

	t.Header = lipgloss.NewStyle().
		Background(ThemeBg(t.Primary)).
		Foreground(ThemeFg(ColorOnPrimary.pick(dark))).
		Bold(true).
		Padding(0, 1)

	t.Date = lipgloss.NewStyle().Foreground(ThemeFg(t.Primary)).Bold(true)
	t.Button = lipgloss.NewStyle().Foreground(ThemeFg(t.Text)).Bold(true)
	t.ButtonOff = lipgloss.NewStyle().Foreground(ThemeFg(t.Muted)).Faint(true)
	t.Stats = lipgloss.NewStyle().Foreground(ThemeFg(t.Muted))
	t.StatValue = lipgloss.NewStyle().Foreground(ThemeFg(t.Text)).Bold(true)

	t.Banner = lipgloss.NewStyle().
		Background(ThemeBg(ColorDangerBg.pick(dark))).
		Foreground(ThemeFg(t.Danger)).
		Bold(true).
		Padding(0, 1)

	t.Status = lipgloss.NewStyle().Foreground(ThemeFg(ColorSuccess.pick(dark)))
	t.MutedText = lipgloss.NewStyle().Foreground(ThemeFg(t.Muted))
	t.Error = lipgloss.NewStyle().Foreground(ThemeFg(t.Danger)).Bold(true)
	t.Picker = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ThemeFg(t.Primary)).
		Padding(0, 1)
	return t
}
