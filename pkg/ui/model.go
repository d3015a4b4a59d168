// Package ui is the interactive terminal dashboard: a choropleth map drawn
// with half-block cells, the date timeline, global figures and the error
// banner, all driven by one bubbletea model.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/pandemap/pkg/api"
	"github.com/vanderheijden86/pandemap/pkg/config"
	"github.com/vanderheijden86/pandemap/pkg/dashboard"
	"github.com/vanderheijden86/pandemap/pkg/debug"
	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/model"
	"github.com/vanderheijden86/pandemap/pkg/timeline"
	"github.com/vanderheijden86/pandemap/pkg/watcher"
)

// frameInterval paces the recolour animation.
const frameInterval = 40 * time.Millisecond

// bootstrapDoneMsg carries the start-up report.
type bootstrapDoneMsg struct{ report dashboard.Report }

// dateLoadedMsg carries a finished date selection.
type dateLoadedMsg struct{ res timeline.Result }

// animTickMsg advances the recolour animation.
type animTickMsg time.Time

// configReloadMsg carries a reloaded config file.
type configReloadMsg watcher.Reload

type dragState struct {
	active   bool
	moved    bool
	col, row int
}

// Model is the dashboard's bubbletea model.
type Model struct {
	dash     *dashboard.Dashboard
	notices  *NoticeChannel
	reloader *watcher.ConfigReloader
	cfg      config.Config
	source   string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	picker  textinput.Model
	themes  [2]Theme

	width, height int
	ready         bool
	booting       bool
	report        dashboard.Report

	banner    Banner
	status    string
	picking   bool
	showHelp  bool
	helpView  string
	animating bool
	drag      dragState

	now  func() time.Time
	copy func(string) error
}

// Option configures a Model.
type Option func(*Model)

// WithNotices feeds api notices into the banner.
func WithNotices(n *NoticeChannel) Option {
	return func(m *Model) { m.notices = n }
}

// WithConfigReloader applies config file changes while running.
func WithConfigReloader(r *watcher.ConfigReloader) Option {
	return func(m *Model) { m.reloader = r }
}

// WithClock replaces time.Now for animation.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.copy = write }
}

// NewModel creates the dashboard model. Start-up runs from Init.
func NewModel(dash *dashboard.Dashboard, cfg config.Config, opts ...Option) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = model.DateLayout
	ti.CharLimit = len(model.DateLayout)
	ti.Width = len(model.DateLayout) + 1
	ti.Prompt = "Go to date: "

	m := Model{
		dash:    dash,
		cfg:     cfg,
		source:  cfg.API.BaseURL,
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: sp,
		picker:  ti,
		themes:  [2]Theme{NewTheme(false), NewTheme(true)},
		booting: true,
		now:     time.Now,
		copy:    clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// ProgramOptions returns the tea.Program options for cfg.
func ProgramOptions(cfg config.Config) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return opts
}

// BootstrapCmd runs the dashboard start-up sequence off the UI loop.
func BootstrapCmd(dash *dashboard.Dashboard) tea.Cmd {
	return func() tea.Msg {
		return bootstrapDoneMsg{report: dash.Bootstrap(context.Background())}
	}
}

// WaitForReloadCmd blocks until the config file changes.
func WaitForReloadCmd(r *watcher.ConfigReloader) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		up, ok := <-r.Updates()
		if !ok {
			return nil
		}
		return configReloadMsg(up)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		BootstrapCmd(m.dash),
		WaitForNoticeCmd(m.notices),
		WaitForReloadCmd(m.reloader),
	)
}

func (m Model) theme() Theme {
	if m.dash.Store().State().DarkMode {
		return m.themes[1]
	}
	return m.themes[0]
}

func (m Model) layout() mapLayout { return layoutFor(m.width, m.height) }

func (m Model) bannerTTL() time.Duration {
	if m.cfg.UI.BannerTTL > 0 {
		return m.cfg.UI.BannerTTL
	}
	return DefaultBannerTTL
}

func (m *Model) resizeMap() {
	if !m.ready {
		return
	}
	w, h := m.layout().pixelSize()
	m.dash.Resize(w, h)
}

// animate schedules the next frame while the map is recolouring.
func (m *Model) animate() tea.Cmd {
	r := m.dash.Renderer()
	if m.animating || r == nil || !r.Animating(m.now()) {
		return nil
	}
	m.animating = true
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// selectDate begins a selection now and loads it off the UI loop. Only the
// newest selection is applied when its data arrives.
func (m *Model) selectDate(day string) tea.Cmd {
	tl := m.dash.Timeline()
	req, err := tl.Begin(day)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	return func() tea.Msg {
		return dateLoadedMsg{res: tl.Load(context.Background(), req)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resizeMap()
		if m.showHelp {
			m.helpView = renderHelp(m.width, m.theme().Dark)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.booting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bootstrapDoneMsg:
		m.booting = false
		m.report = msg.report
		debug.LogIf(msg.report.Halted(), "ui: start-up halted: %v", msg.report.HealthErr)
		m.resizeMap()
		return m, m.animate()

	case dateLoadedMsg:
		if m.dash.Timeline().Apply(msg.res) && msg.res.Dataset != nil && msg.res.Coerced() {
			m.status = fmt.Sprintf("No data for %s, showing %s", msg.res.Requested, msg.res.Date)
		}
		return m, m.animate()

	case animTickMsg:
		m.animating = false
		return m, m.animate()

	case NoticeMsg:
		seq := m.banner.Show(api.Notice(msg))
		cmds := []tea.Cmd{WaitForNoticeCmd(m.notices)}
		if !msg.Persistent {
			cmds = append(cmds, bannerExpireCmd(seq, m.bannerTTL()))
		}
		return m, tea.Batch(cmds...)

	case bannerExpiredMsg:
		m.banner.Expire(msg.seq)
		return m, nil

	case configReloadMsg:
		cmd := m.applyConfig(watcher.Reload(msg))
		return m, tea.Batch(cmd, WaitForReloadCmd(m.reloader))

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applyConfig(up watcher.Reload) tea.Cmd {
	if up.Err != nil {
		m.status = "Config not reloaded: " + up.Err.Error()
		return nil
	}
	old := m.cfg
	m.cfg = up.Config
	m.status = "Config reloaded"
	if up.Config.API.BaseURL != old.API.BaseURL || up.Config.Map.Geometry != old.Map.Geometry {
		m.status = "Config reloaded; restart to use the new backend or geometry"
	}
	switch {
	case up.Config.UI.Mouse && !old.UI.Mouse:
		return tea.EnableMouseCellMotion
	case !up.Config.UI.Mouse && old.UI.Mouse:
		m.drag = dragState{}
		return tea.DisableMouse
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.picking {
		return m.updatePicker(msg)
	}
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Close):
			m.showHelp = false
		}
		return m, nil
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpView = renderHelp(m.width, m.theme().Dark)
		return m, nil
	case key.Matches(msg, m.keys.Close):
		if r := m.dash.Renderer(); r != nil && r.Popup() != nil {
			r.ClosePopup()
		} else {
			m.banner.Dismiss()
		}
		return m, nil
	case key.Matches(msg, m.keys.Dark):
		if _, err := m.dash.Store().ToggleDarkMode(); err != nil {
			m.status = "Dark mode not saved: " + err.Error()
		}
		return m, m.animate()
	}

	if m.booting || m.report.Halted() {
		return m, nil
	}
	tl := m.dash.Timeline()
	switch {
	case key.Matches(msg, m.keys.Prev):
		if day, ok := tl.PrevDate(); ok {
			return m, m.selectDate(day)
		}
	case key.Matches(msg, m.keys.Next):
		if day, ok := tl.NextDate(); ok {
			return m, m.selectDate(day)
		}
	case key.Matches(msg, m.keys.Latest):
		if day, ok := tl.LatestDate(); ok {
			return m, m.selectDate(day)
		}
	case key.Matches(msg, m.keys.PickDate):
		if m.dash.Store().State().Dates.Empty() {
			return m, nil
		}
		m.picking = true
		m.picker.SetValue(m.dash.Store().State().CurrentDate)
		m.picker.CursorEnd()
		return m, m.picker.Focus()
	case key.Matches(msg, m.keys.Copy):
		m.copyPopup()
	default:
		m.handleMapKey(msg)
	}
	return m, nil
}

func (m *Model) handleMapKey(msg tea.KeyMsg) {
	r := m.dash.Renderer()
	if r == nil {
		return
	}
	w, h := r.Size()
	stepX, stepY := w/10, h/10

	var t mapview.Transform
	switch {
	case key.Matches(msg, m.keys.ZoomIn):
		t = r.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		t = r.ZoomOut()
	case key.Matches(msg, m.keys.ResetZoom):
		t = r.ResetZoom()
	case key.Matches(msg, m.keys.PanLeft):
		t = r.Pan(stepX, 0)
	case key.Matches(msg, m.keys.PanRight):
		t = r.Pan(-stepX, 0)
	case key.Matches(msg, m.keys.PanUp):
		t = r.Pan(0, stepY)
	case key.Matches(msg, m.keys.PanDown):
		t = r.Pan(0, -stepY)
	default:
		return
	}
	m.dash.Store().SetZoom(t)
}

func (m *Model) copyPopup() {
	r := m.dash.Renderer()
	if r == nil || r.Popup() == nil {
		return
	}
	p := r.Popup()
	if err := m.copy(p.Text()); err != nil {
		m.status = "Copy failed: " + err.Error()
		return
	}
	m.status = "Copied " + p.Title()
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.picking = false
		m.picker.Blur()
		return m, nil
	case "enter":
		m.picking = false
		m.picker.Blur()
		return m, m.selectDate(strings.TrimSpace(m.picker.Value()))
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	r := m.dash.Renderer()
	if r == nil || m.booting || m.showHelp || m.picking || !m.cfg.UI.Mouse {
		return m, nil
	}
	l := m.layout()

	switch {
	case msg.Action == tea.MouseActionPress && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
		x, y, ok := l.toPixel(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		factor := mapview.ZoomFactor
		if msg.Button == tea.MouseButtonWheelDown {
			factor = 1 / factor
		}
		m.dash.Store().SetZoom(r.ZoomAt(factor, x, y))

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if _, _, ok := l.toPixel(msg.X, msg.Y); ok {
			m.drag = dragState{active: true, col: msg.X, row: msg.Y}
		}

	case msg.Action == tea.MouseActionMotion && m.drag.active:
		dx, dy := msg.X-m.drag.col, msg.Y-m.drag.row
		if dx != 0 || dy != 0 {
			m.dash.Store().SetZoom(r.Pan(float64(dx), float64(2*dy)))
			m.drag.col, m.drag.row = msg.X, msg.Y
			m.drag.moved = true
		}

	case msg.Action == tea.MouseActionRelease:
		d := m.drag
		m.drag = dragState{}
		if d.active && !d.moved {
			m.click(r, l, msg.X, msg.Y)
		}
	}
	return m, nil
}

// click handles a press and release on the same cell: the popup's close
// button, the popup body, or a country.
func (m *Model) click(r *mapview.Renderer, l mapLayout, col, row int) {
	if p := r.Popup(); p != nil {
		scratch := NewCanvas(l.cols, l.rows, "")
		box, closeBtn := drawPopup(scratch, p, m.theme())
		switch {
		case closeBtn.contains(col, row-l.top):
			r.ClosePopup()
			return
		case box.contains(col, row-l.top):
			return
		}
	}
	x, y, ok := l.toPixel(col, row)
	if !ok {
		return
	}
	r.Click(x, y)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	th := m.theme()
	if m.booting {
		return m.renderLoadingScreen(th)
	}
	if m.showHelp {
		return m.helpView
	}

	lines := []string{
		m.renderHeader(th),
		m.renderStats(th),
		m.renderBanner(th),
	}
	lines = append(lines, m.renderMap(th)...)
	lines = append(lines, m.clip(m.help.View(m.keys)))
	return strings.Join(lines, "\n")
}

func (m Model) clip(s string) string {
	return lipgloss.NewStyle().MaxWidth(m.width).Render(s)
}

func (m Model) renderLoadingScreen(th Theme) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		th.Header.Render("pandemap"),
		"",
		m.spinner.View()+" "+th.MutedText.Render("Loading dashboard..."),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderHeader(th Theme) string {
	st := m.dash.Store().State()
	prevOn, nextOn := m.dash.Timeline().Buttons()
	button := func(label string, on bool) string {
		if on && !m.report.Halted() {
			return th.Button.Render(label)
		}
		return th.ButtonOff.Render(label)
	}

	var date string
	switch {
	case m.picking:
		date = m.picker.View()
	case st.CurrentDate != "":
		date = th.Date.Render(st.CurrentDate)
		if i := st.Dates.Index(st.CurrentDate); i >= 0 {
			date += th.MutedText.Render(fmt.Sprintf(" (%d/%d)", i+1, st.Dates.Len()))
		}
	default:
		date = th.MutedText.Render("no date")
	}

	gap := strings.Repeat(" ", SpaceSM)
	header := th.Header.Render("pandemap") + gap +
		button("◀ prev", prevOn) + gap + date + gap + button("next ▶", nextOn)
	if m.source != "" {
		header += strings.Repeat(" ", SpaceMD) + th.MutedText.Render(m.source)
	}
	return m.clip(header)
}

func (m Model) renderStats(th Theme) string {
	st := m.dash.Store().State()
	gs := st.Stats
	if gs == nil {
		switch {
		case m.report.Halted():
			return th.Error.Render("Backend unavailable")
		case m.report.DatesErr != nil || m.report.DataErr != nil:
			return th.MutedText.Render("Figures unavailable")
		}
		return th.MutedText.Render("Loading figures...")
	}
	field := func(label, value string) string {
		return th.Stats.Render(label+" ") + th.StatValue.Render(value)
	}
	sep := th.MutedText.Render("  ·  ")
	return m.clip(strings.Join([]string{
		field("Total Cases", humanize.Comma(gs.TotalCases)),
		field("Total Deaths", humanize.Comma(gs.TotalDeaths)),
		field("Countries", humanize.Comma(int64(gs.TotalCountries))),
	}, sep))
}

func (m Model) renderBanner(th Theme) string {
	if m.banner.Active() {
		hint := "  (esc to dismiss)"
		room := max(m.width-runewidth.StringWidth(hint)-4, 10)
		msg := runewidth.Truncate("⚠ "+m.banner.Message, room, "…")
		return m.clip(th.Banner.Render(msg + hint))
	}
	if m.status != "" {
		return m.clip(th.Status.Render(runewidth.Truncate(m.status, max(m.width, 1), "…")))
	}
	return ""
}

func (m Model) renderMap(th Theme) []string {
	l := m.layout()
	r := m.dash.Renderer()
	if r == nil {
		msg := ""
		switch {
		case m.report.Halted():
			msg = th.Error.Render("The statistics backend is not ready.") + "\n" +
				th.MutedText.Render("Start it and restart pandemap.")
		case m.dash.MapErr() != nil:
			msg = th.Error.Render(m.dash.MapErr().Error())
		}
		placed := lipgloss.Place(l.cols, l.rows, lipgloss.Center, lipgloss.Center, msg)
		return strings.Split(placed, "\n")
	}
	return drawMap(r, l, th, m.now()).canvas.Lines()
}
