// editor.go — Single-writer reducer that owns a LayoutState.
package overlay

import (
	"math"

	"go.uber.org/zap"
)

// Editor owns one LayoutState and the drag state machine. Dispatch is the only
// way to change the state; renderers and the serializer read snapshots
// returned by State and never write back. Editor is not safe for concurrent
// use: hosts dispatch from their single event loop, or guard the editor with a
// lock of their own.
type Editor struct {
	state    LayoutState
	defaults LayoutState
	drag     DragState
	viewport *ViewportModel
	logger   *zap.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger attaches a logger for transition tracing at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithViewport sets the initial preview box size.
func WithViewport(width, height float64) Option {
	return func(e *Editor) { e.viewport.Measure(width, height) }
}

// WithDefaults sets the layout restored by Reset and Cancel{Restore: true}.
// Without it the initial state is used.
func WithDefaults(d LayoutState) Option {
	return func(e *Editor) { e.defaults = d }
}

// NewEditor creates an editor starting from initial.
func NewEditor(initial LayoutState, opts ...Option) *Editor {
	e := &Editor{
		state:    initial,
		defaults: initial,
		viewport: NewViewportModel(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = e.normalize(e.state)
	return e
}

// Dispatch applies a to the editor and reports whether it was handled. For
// PointerDown a true result means a drag started: the host should suppress the
// event's default action and stop its propagation.
func (e *Editor) Dispatch(a Action) bool {
	if a == nil {
		return false
	}
	handled := a.apply(e)
	if ce := e.logger.Check(zap.DebugLevel, "action"); ce != nil {
		ce.Write(
			zap.String("type", actionName(a)),
			zap.Bool("handled", handled),
			zap.Stringer("drag", e.drag.Target),
		)
	}
	return handled
}

// State returns a snapshot of the current layout.
func (e *Editor) State() LayoutState { return e.state }

// Drag returns the current drag state.
func (e *Editor) Drag() DragState { return e.drag }

// Viewport returns the last measured preview size.
func (e *Editor) Viewport() Viewport { return e.viewport.Current() }

// Bars returns the bars of the live viewport.
func (e *Editor) Bars() Bars { return ComputeBars(e.Viewport(), e.state.Header.Enabled) }

// Overlay returns the state placed on the live viewport.
func (e *Editor) Overlay() Overlay { return Geometry(e.state, e.Viewport()) }

// Fitted returns the state clamped to the live viewport. It is what Overlay
// shows and Payload serializes; raster previews should render it rather than
// State.
func (e *Editor) Fitted() LayoutState { return Fit(e.state, e.Viewport()) }

// Payload serializes the current state against the live viewport.
func (e *Editor) Payload() Payload { return Serialize(e.state, e.Viewport()) }

// normalize clamps every bounded field against the live viewport.
func (e *Editor) normalize(s LayoutState) LayoutState {
	s = Fit(s, e.Viewport())
	if !HasTheme(s.Theme) {
		s.Theme = DefaultTheme
	}
	return s
}

// ── Actions ──

// Action is a state transition request handled by Editor.Dispatch.
type Action interface {
	apply(e *Editor) bool
}

// PointerDown starts a drag on an explicit target.
type PointerDown struct {
	Target Target
	X, Y   float64
}

// PointerDownAt starts a drag on whatever element is under (X, Y).
type PointerDownAt struct {
	X, Y float64
}

// PointerMove updates the active drag.
type PointerMove struct {
	X, Y float64
}

// PointerUp ends the active drag.
type PointerUp struct{}

// Resize records a new preview box size. The state keeps its percentages;
// Overlay and Payload fit them to the new box. An active drag ends, since its
// anchor was taken in the old box's pixels.
type Resize struct {
	Width, Height float64
}

// ImageChanged re-measures the box for a new base image and cancels any drag.
type ImageChanged struct {
	BoxWidth, ImageWidth, ImageHeight float64
}

// Cancel aborts the active drag. Restore also reinstates the default layout.
type Cancel struct {
	Restore bool
}

// Reset reinstates the default layout.
type Reset struct{}

// SetHeader toggles the header strip and sets its copy.
type SetHeader struct {
	Enabled     bool
	Date, Label string
}

// SetTheme selects a registered theme.
type SetTheme struct {
	Name string
}

// SetLogo enables or disables one logo variant. Enabling one variant disables
// the other.
type SetLogo struct {
	Kind    LogoKind
	Enabled bool
}

// SetLogoWidth is the logo size slider, in percent of content width.
type SetLogoWidth struct {
	Pct float64
}

// SetLogoOpacity is the logo opacity slider.
type SetLogoOpacity struct {
	Value float64
}

// SetOverlayOpacity is the band opacity slider.
type SetOverlayOpacity struct {
	Value float64
}

// SetOverlayHeight is the band height slider, in percent of the content box.
type SetOverlayHeight struct {
	Pct float64
}

// SetFontSizes sets title and subtitle font sizes at reference resolution.
// Zero leaves a size unchanged.
type SetFontSizes struct {
	Title, Subtitle float64
}

// SetText replaces copy. Nil fields are left unchanged.
type SetText struct {
	Title, Subtitle, AlertTag, Handle *string
}

// SetAlertTag shows or hides the alert tag.
type SetAlertTag struct {
	Enabled bool
}

func (a PointerDown) apply(e *Editor) bool {
	d, ok := StartDrag(e.drag, a.Target, Point{X: a.X, Y: a.Y}, e.state, e.Viewport())
	e.drag = d
	return ok
}

func (a PointerDownAt) apply(e *Editor) bool {
	if !e.drag.Idle() {
		return false
	}
	target := HitTest(e.Overlay(), a.X, a.Y)
	return PointerDown{Target: target, X: a.X, Y: a.Y}.apply(e)
}

func (a PointerMove) apply(e *Editor) bool {
	if e.drag.Idle() {
		return false
	}
	e.state = MoveDrag(e.drag, Point{X: a.X, Y: a.Y}, e.state, e.Viewport())
	return true
}

func (PointerUp) apply(e *Editor) bool {
	wasDragging := !e.drag.Idle()
	e.drag = EndDrag(e.drag)
	return wasDragging
}

func (a Resize) apply(e *Editor) bool {
	e.drag = EndDrag(e.drag)
	e.viewport.Measure(a.Width, a.Height)
	return true
}

func (a ImageChanged) apply(e *Editor) bool {
	e.drag = EndDrag(e.drag)
	e.viewport.MeasureImage(a.BoxWidth, a.ImageWidth, a.ImageHeight)
	e.state = e.normalize(e.state)
	return true
}

func (a Cancel) apply(e *Editor) bool {
	e.drag = EndDrag(e.drag)
	if a.Restore {
		e.state = e.normalize(e.defaults)
	}
	return true
}

func (Reset) apply(e *Editor) bool {
	e.drag = EndDrag(e.drag)
	e.state = e.normalize(e.defaults)
	return true
}

func (a SetHeader) apply(e *Editor) bool {
	e.state.Header = Header{Enabled: a.Enabled, Date: a.Date, Label: a.Label}
	e.state = e.normalize(e.state)
	return true
}

func (a SetTheme) apply(e *Editor) bool {
	if !HasTheme(a.Name) {
		return false
	}
	e.state.Theme = LookupTheme(a.Name).Name
	return true
}

func (a SetLogo) apply(e *Editor) bool {
	switch {
	case a.Kind != LogoCircle && a.Kind != LogoHorizontal:
		return false
	case a.Enabled:
		e.state.Logo.Kind = a.Kind
	case e.state.Logo.Kind == a.Kind:
		e.state.Logo.Kind = LogoNone
	default:
		return false
	}
	if t := e.drag.Target; (t.isLogo() || t.isLogoResize()) && t.logoKind() != e.state.Logo.Kind {
		e.drag = EndDrag(e.drag)
	}
	e.state = e.normalize(e.state)
	return true
}

func (a SetLogoWidth) apply(e *Editor) bool {
	if math.IsNaN(a.Pct) {
		return false
	}
	e.state.Logo.WidthPct = clamp(a.Pct, LogoMinWidthPct, LogoMaxWidthPct)
	e.state = e.normalize(e.state)
	return true
}

func (a SetLogoOpacity) apply(e *Editor) bool {
	e.state.Logo.Opacity = clamp(a.Value, LogoMinOpacity, LogoMaxOpacity)
	return true
}

func (a SetOverlayOpacity) apply(e *Editor) bool {
	e.state.OverlayOpacity = clamp(a.Value, 0, 1)
	return true
}

func (a SetOverlayHeight) apply(e *Editor) bool {
	if math.IsNaN(a.Pct) {
		return false
	}
	e.state.OverlayHeightPct = clamp(a.Pct, 0, 100)
	e.state = e.normalize(e.state)
	return true
}

func (a SetFontSizes) apply(e *Editor) bool {
	if a.Title > 0 {
		e.state.TitleFontPx = clamp(a.Title, 8, 200)
	}
	if a.Subtitle > 0 {
		e.state.SubtitleFontPx = clamp(a.Subtitle, 8, 200)
	}
	return a.Title > 0 || a.Subtitle > 0
}

func (a SetText) apply(e *Editor) bool {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&e.state.Texts.Title, a.Title)
	set(&e.state.Texts.Subtitle, a.Subtitle)
	set(&e.state.Texts.AlertTag, a.AlertTag)
	set(&e.state.Texts.Handle, a.Handle)
	return true
}

func (a SetAlertTag) apply(e *Editor) bool {
	e.state.AlertEnabled = a.Enabled
	if !a.Enabled && e.drag.Target == TargetAlertTag {
		e.drag = EndDrag(e.drag)
	}
	return true
}
