package mapview

import (
	"math"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/vanderheijden86/pandemap/pkg/debug"
	"github.com/vanderheijden86/pandemap/pkg/geo"
	"github.com/vanderheijden86/pandemap/pkg/metrics"
	"github.com/vanderheijden86/pandemap/pkg/model"
	"github.com/vanderheijden86/pandemap/pkg/resolver"
)

// DefaultTransition is how long a recolour takes.
const DefaultTransition = 500 * time.Millisecond

// Renderer owns the loaded geometry and everything drawn on top of it.
// Geometry is loaded once; Resize only refits the projection.
type Renderer struct {
	mu sync.Mutex

	world *geo.World
	proj  geo.Projection
	w, h  float64

	transform Transform
	dataset   *model.MapDataset
	records   []recordSlot // per feature

	from, to   []colorful.Color
	start      time.Time
	transition time.Duration

	selected int
	popup    *Popup
	dark     bool
}

type recordSlot struct {
	rec model.CountryRecord
	ok  bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTransition sets the recolour duration. Zero snaps immediately.
func WithTransition(d time.Duration) Option {
	return func(r *Renderer) {
		r.transition = d
	}
}

// New creates a renderer for world in a width x height viewport.
func New(world *geo.World, width, height float64, opts ...Option) *Renderer {
	r := &Renderer{
		world:      world,
		transform:  Identity,
		transition: DefaultTransition,
		selected:   -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	n := len(world.Features)
	r.records = make([]recordSlot, n)
	r.from = make([]colorful.Color, n)
	r.to = make([]colorful.Color, n)
	noData := NoData.Color()
	for i := range r.to {
		r.from[i] = noData
		r.to[i] = noData
	}
	r.resize(width, height)
	return r
}

// World returns the loaded geometry.
func (r *Renderer) World() *geo.World { return r.world }

// Size returns the viewport size.
func (r *Renderer) Size() (w, h float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w, r.h
}

// Resize refits the projection to a new viewport and re-clamps the zoom.
func (r *Renderer) Resize(width, height float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resize(width, height)
}

func (r *Renderer) resize(width, height float64) {
	r.w, r.h = width, height
	r.proj = geo.Fit(r.world.Bound, width, height)
	r.transform = r.transform.Clamp(width, height)
}

// Transform returns the current zoom transform.
func (r *Renderer) Transform() Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transform
}

// SetTransform replaces the zoom transform after clamping it.
func (r *Renderer) SetTransform(t Transform) Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = t.Clamp(r.w, r.h)
	return r.transform
}

// ZoomIn zooms by ZoomFactor around the viewport centre.
func (r *Renderer) ZoomIn() Transform { return r.zoomCentre(ZoomFactor) }

// ZoomOut zooms by 1/ZoomFactor around the viewport centre.
func (r *Renderer) ZoomOut() Transform { return r.zoomCentre(1 / ZoomFactor) }

func (r *Renderer) zoomCentre(f float64) Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = r.transform.ZoomAt(f, r.w/2, r.h/2, r.w, r.h)
	return r.transform
}

// ZoomAt zooms by factor keeping (x, y) fixed.
func (r *Renderer) ZoomAt(factor, x, y float64) Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = r.transform.ZoomAt(factor, x, y, r.w, r.h)
	return r.transform
}

// Pan moves the map by (dx, dy) pixels.
func (r *Renderer) Pan(dx, dy float64) Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = r.transform.Pan(dx, dy, r.w, r.h)
	return r.transform
}

// ResetZoom returns to the identity transform.
func (r *Renderer) ResetZoom() Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = Identity
	return r.transform
}

// SetDark switches the theme.
func (r *Renderer) SetDark(dark bool) {
	r.mu.Lock()
	r.dark = dark
	r.mu.Unlock()
}

// SetDataset recolours the map for ds, blending from the colours shown at
// now. An open popup follows its country into the new dataset.
func (r *Renderer) SetDataset(ds *model.MapDataset, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.from {
		r.from[i] = r.colorAt(i, now)
	}
	r.dataset = ds
	for i := range r.world.Features {
		rec, ok := r.lookup(i)
		r.records[i] = recordSlot{rec: rec, ok: ok}
		r.to[i] = BucketFor(rec, ok).Color()
	}
	r.start = now

	if r.popup != nil {
		slot := r.records[r.popup.Feature]
		if slot.ok {
			r.popup.Record = slot.rec
			r.popup.Date = datasetDate(ds)
		} else {
			r.popup = nil
		}
	}
}

// lookup finds the record for feature i: ISO code first, then the resolver
// on the feature name.
func (r *Renderer) lookup(i int) (model.CountryRecord, bool) {
	if r.dataset == nil {
		return model.CountryRecord{}, false
	}
	f := &r.world.Features[i]
	if rec, ok := r.dataset.ByISOCode(f.ID); ok {
		return rec, true
	}
	return resolver.Resolve(f.Name, r.dataset)
}

// Bucket returns the current bucket of feature i.
func (r *Renderer) Bucket(i int) Bucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.records) {
		return NoData
	}
	return BucketFor(r.records[i].rec, r.records[i].ok)
}

// Animating reports whether a recolour is still in progress at now.
func (r *Renderer) Animating(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress(now) < 1
}

func (r *Renderer) progress(now time.Time) float64 {
	if r.transition <= 0 || r.start.IsZero() {
		return 1
	}
	p := float64(now.Sub(r.start)) / float64(r.transition)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (r *Renderer) colorAt(i int, now time.Time) colorful.Color {
	p := r.progress(now)
	if p >= 1 {
		return r.to[i]
	}
	return r.from[i].BlendLab(r.to[i], p).Clamped()
}

// FeatureAt returns the feature under the screen point (x, y), or -1.
func (r *Renderer) FeatureAt(x, y float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.featureAt(x, y)
}

func (r *Renderer) featureAt(x, y float64) int {
	pt := r.proj.Invert(r.transform.Invert(orb.Point{x, y}))
	return r.world.HitTest(pt)
}

// Click handles a click at (x, y): the previous selection is cleared, the
// country under the pointer becomes selected and, when the dataset has a
// record for it, the popup opens there. Clicking empty space closes the
// popup.
func (r *Renderer) Click(x, y float64) *Popup {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.selected = -1
	r.popup = nil

	i := r.featureAt(x, y)
	if i < 0 {
		return nil
	}
	r.selected = i
	slot := r.records[i]
	if !slot.ok {
		name := r.world.Features[i].Name
		_, err := resolver.Lookup(name, r.dataset)
		debug.Log("country lookup: %v", err)
		return nil
	}
	r.popup = &Popup{
		Feature: i,
		Record:  slot.rec,
		Date:    datasetDate(r.dataset),
		AnchorX: x,
		AnchorY: y,
	}
	p := *r.popup
	return &p
}

// Selected returns the selected feature index, or -1.
func (r *Renderer) Selected() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// Popup returns a copy of the open popup, or nil.
func (r *Renderer) Popup() *Popup {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.popup == nil {
		return nil
	}
	p := *r.popup
	return &p
}

// ClosePopup closes the popup and clears the selection.
func (r *Renderer) ClosePopup() {
	r.mu.Lock()
	r.popup = nil
	r.selected = -1
	r.mu.Unlock()
}

// DrawOptions selects the overlays painted by Draw.
type DrawOptions struct {
	Legend bool
	Popup  bool
	Title  string
}

// Draw paints the map at time now onto s, which must be the viewport size.
func (r *Renderer) Draw(s Surface, now time.Time, opts DrawOptions) {
	defer metrics.Timer(metrics.MapRender)()
	r.mu.Lock()
	defer r.mu.Unlock()

	theme := ThemeFor(r.dark)
	s.Clear(theme.Background)

	for i := range r.world.Features {
		if i == r.selected {
			continue
		}
		s.Polygon(r.screenRings(i), r.colorAt(i, now), theme.Border, 0.5)
	}
	if r.selected >= 0 {
		s.Polygon(r.screenRings(r.selected), r.colorAt(r.selected, now), theme.Selected, 2)
	}

	if opts.Title != "" {
		s.Text(PopupMargin, PopupMargin+12, opts.Title, theme.PanelText, true)
	}
	if opts.Legend {
		r.drawLegend(s, theme)
	}
	if opts.Popup && r.popup != nil {
		r.drawPopup(s, theme)
	}
}

func (r *Renderer) screenRings(i int) []orb.Ring {
	f := &r.world.Features[i]
	var rings []orb.Ring
	for _, poly := range f.Shape {
		for _, ring := range poly {
			out := make(orb.Ring, len(ring))
			for k, p := range ring {
				out[k] = r.transform.Apply(r.proj.Project(p))
			}
			rings = append(rings, out)
		}
	}
	return rings
}

const (
	legendSwatch = 14.0
	legendRow    = 18.0
	panelPad     = 8.0
)

func (r *Renderer) drawLegend(s Surface, theme Theme) {
	buckets := Legend()
	width, lineH := s.TextSize(LegendTitle)
	for _, b := range buckets {
		lw, _ := s.TextSize(b.Label())
		if lw+legendSwatch+6 > width {
			width = lw + legendSwatch + 6
		}
	}
	box := Rect{
		W: width + 2*panelPad,
		H: lineH + float64(len(buckets))*legendRow + 2*panelPad,
	}
	box.X = math.Max(PopupMargin, r.w-box.W-PopupMargin)
	box.Y = math.Max(PopupMargin, r.h-box.H-PopupMargin)
	s.Rect(box, theme.Panel, theme.Muted, 1)

	y := box.Y + panelPad + lineH
	s.Text(box.X+panelPad, y, LegendTitle, theme.PanelText, true)
	for _, b := range buckets {
		y += legendRow
		sw := Rect{X: box.X + panelPad, Y: y - legendSwatch + 2, W: legendSwatch, H: legendSwatch}
		s.Rect(sw, b.Color(), theme.Muted, 1)
		s.Text(sw.X+legendSwatch+6, y, b.Label(), theme.PanelText, false)
	}
}

func (r *Renderer) drawPopup(s Surface, theme Theme) {
	p := r.popup
	lines := p.Lines()
	width, lineH := s.TextSize(p.Title())
	for _, l := range lines {
		if lw, _ := s.TextSize(l); lw > width {
			width = lw
		}
	}
	rowH := lineH + 4
	box := PlacePopup(p.AnchorX, p.AnchorY,
		width+2*panelPad, rowH*float64(len(lines)+1)+2*panelPad,
		r.w, r.h, PopupMargin)
	s.Rect(box, theme.Panel, theme.Muted, 1)

	y := box.Y + panelPad + lineH
	s.Text(box.X+panelPad, y, p.Title(), theme.PanelText, true)
	for _, l := range lines {
		y += rowH
		s.Text(box.X+panelPad, y, l, theme.Muted, false)
	}
}

func datasetDate(ds *model.MapDataset) string {
	if ds == nil {
		return ""
	}
	return ds.Date
}
