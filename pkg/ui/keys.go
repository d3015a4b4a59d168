package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding the dashboard answers to. It satisfies
// help.KeyMap for the footer.
type keyMap struct {
	Prev      key.Binding
	Next      key.Binding
	Latest    key.Binding
	PickDate  key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	ResetZoom key.Binding
	PanLeft   key.Binding
	PanRight  key.Binding
	PanUp     key.Binding
	PanDown   key.Binding
	Dark      key.Binding
	Copy      key.Binding
	Close     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Prev:      key.NewBinding(key.WithKeys("left", "p", "["), key.WithHelp("←/p", "prev date")),
		Next:      key.NewBinding(key.WithKeys("right", "n", "]"), key.WithHelp("→/n", "next date")),
		Latest:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "latest")),
		PickDate:  key.NewBinding(key.WithKeys("g", "/"), key.WithHelp("g", "go to date")),
		ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		ResetZoom: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset zoom")),
		PanLeft:   key.NewBinding(key.WithKeys("h"), key.WithHelp("hjkl", "pan")),
		PanRight:  key.NewBinding(key.WithKeys("l")),
		PanUp:     key.NewBinding(key.WithKeys("k")),
		PanDown:   key.NewBinding(key.WithKeys("j")),
		Dark:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "dark mode")),
		Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy popup")),
		Close:     key.NewBinding(key.WithKeys("esc", "x"), key.WithHelp("esc", "close")),
		Help:      key.NewBinding(key.WithKeys("?", "f1"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.PickDate, k.ZoomIn, k.ZoomOut, k.PanLeft, k.Dark, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Latest, k.PickDate},
		{k.ZoomIn, k.ZoomOut, k.ResetZoom, k.PanLeft},
		{k.Dark, k.Copy, k.Close, k.Help, k.Quit},
	}
}
