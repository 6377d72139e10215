// Package highlight places and clears the reading highlight. It owns no
// geometry of its own: views contribute capabilities (vector overlays, page
// geometry, rectangle hosts) and the renderer picks the placement mode per
// draw call.
package highlight

import (
	"log/slog"
	"sync"

	"github.com/example/readaloud/internal/document"
)

const (
	// ID is the well-known identifier under which the reading highlight
	// is placed on rect hosts, so embedders can style or inspect it.
	ID = "tts-highlight"

	// Color is the reading highlight fill.
	Color = "rgba(255, 255, 0, 0.3)"
)

// LayoutMode tells the renderer how a section is laid out.
type LayoutMode int

const (
	// LayoutFlowed is reflowable content; highlights follow text.
	LayoutFlowed LayoutMode = iota
	// LayoutFixed is pre-paginated content; highlights are rectangles in
	// page coordinates.
	LayoutFixed
)

// Rect is an axis-aligned rectangle in view coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Point is a coordinate pair in view coordinates.
type Point struct {
	X, Y float64
}

// Drawing is a live overlay drawing that can be removed.
type Drawing interface {
	Remove()
}

// Overlayer draws vector overlays over flowed text.
type Overlayer interface {
	Draw(rng document.Range, color string) (Drawing, error)
}

// OverlayProvider yields the overlay layer for a section when the view
// maintains one there. Fixed-layout sections typically have none.
type OverlayProvider interface {
	Overlay(section int) (Overlayer, bool)
}

// Surface reports layout geometry for ranges.
type Surface interface {
	Mode(section int) LayoutMode
	Rects(section int, rng document.Range) ([]Rect, error)
	PixelRatio() float64
	LayerOrigin(section int) Point
}

// RectHost displays plain rectangles under a caller-chosen id. The fixed
// flag distinguishes page-coordinate rects from viewport-coordinate ones.
type RectHost interface {
	PlaceRects(id string, rects []Rect, fixed bool) error
	RemoveRects(id string)
}

// Capabilities collects what a view can do for highlight placement. Any
// field may be nil; the renderer degrades per draw call.
type Capabilities struct {
	Overlays OverlayProvider
	Surface  Surface
	Rects    RectHost
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

type options struct {
	logger *slog.Logger
}

func defaultOptions() options {
	return options{logger: slog.Default()}
}

// Option configures the renderer.
type Option func(*options)

// WithLogger sets the slog.Logger used for absorbed draw failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// ---------------------------------------------------------------------------
// Renderer
// ---------------------------------------------------------------------------

// Renderer keeps at most one highlight visible. Draw implicitly clears the
// previous highlight, and every placement failure is absorbed: a failed draw
// leaves zero highlights and the speech session untouched.
type Renderer struct {
	caps Capabilities
	log  *slog.Logger

	mu        sync.Mutex
	drawing   Drawing
	rectsLive bool
}

// New builds a renderer over the view's capabilities.
func New(caps Capabilities, optFns ...Option) *Renderer {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Renderer{caps: caps, log: opts.logger}
}

// Draw highlights rng within section, replacing any previous highlight.
func (r *Renderer) Draw(section int, rng document.Range) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked()

	mode := LayoutFlowed
	if r.caps.Surface != nil {
		mode = r.caps.Surface.Mode(section)
	}

	switch mode {
	case LayoutFixed:
		r.drawFixedLocked(section, rng)
	default:
		r.drawFlowedLocked(section, rng)
	}
}

// Clear removes the current highlight, whatever form it took. Safe to call
// when nothing is drawn.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
}

func (r *Renderer) clearLocked() {
	if r.drawing != nil {
		r.drawing.Remove()
		r.drawing = nil
	}
	if r.rectsLive {
		if r.caps.Rects != nil {
			r.caps.Rects.RemoveRects(ID)
		}
		r.rectsLive = false
	}
}

// drawFlowedLocked prefers a vector overlay and falls back to viewport
// rectangles when the view has no overlay layer for the section.
func (r *Renderer) drawFlowedLocked(section int, rng document.Range) {
	if r.caps.Overlays != nil {
		if ov, ok := r.caps.Overlays.Overlay(section); ok {
			d, err := ov.Draw(rng, Color)
			if err == nil {
				r.drawing = d
				return
			}
			r.log.Debug("overlay highlight failed",
				slog.Int("section", section),
				slog.String("error", err.Error()),
			)
		}
	}
	r.placeRectsLocked(section, rng, false)
}

// drawFixedLocked converts page-coordinate rects into layer pixels:
// translate by the layer origin, then scale by the device pixel ratio.
func (r *Renderer) drawFixedLocked(section int, rng document.Range) {
	if r.caps.Surface == nil || r.caps.Rects == nil {
		r.log.Debug("fixed-layout highlight needs surface and rect host",
			slog.Int("section", section))
		return
	}

	rects, err := r.caps.Surface.Rects(section, rng)
	if err != nil {
		r.log.Debug("highlight geometry unavailable",
			slog.Int("section", section),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(rects) == 0 {
		return
	}

	origin := r.caps.Surface.LayerOrigin(section)
	ratio := r.caps.Surface.PixelRatio()
	if ratio <= 0 {
		ratio = 1
	}

	scaled := make([]Rect, 0, len(rects))
	for _, rect := range rects {
		scaled = append(scaled, Rect{
			X: (rect.X - origin.X) * ratio,
			Y: (rect.Y - origin.Y) * ratio,
			W: rect.W * ratio,
			H: rect.H * ratio,
		})
	}

	if err := r.caps.Rects.PlaceRects(ID, scaled, true); err != nil {
		r.log.Debug("place fixed-layout highlight",
			slog.Int("section", section),
			slog.String("error", err.Error()),
		)
		return
	}
	r.rectsLive = true
}

func (r *Renderer) placeRectsLocked(section int, rng document.Range, fixed bool) {
	if r.caps.Surface == nil || r.caps.Rects == nil {
		r.log.Debug("no highlight capability for section", slog.Int("section", section))
		return
	}

	rects, err := r.caps.Surface.Rects(section, rng)
	if err != nil {
		r.log.Debug("highlight geometry unavailable",
			slog.Int("section", section),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(rects) == 0 {
		return
	}

	if err := r.caps.Rects.PlaceRects(ID, rects, fixed); err != nil {
		r.log.Debug("place viewport highlight",
			slog.Int("section", section),
			slog.String("error", err.Error()),
		)
		return
	}
	r.rectsLive = true
}
