// drag.go — Pointer-driven drag/resize state machine.
//
// The machine has two states. The zero DragState is Idle; a DragState with a
// Target is Dragging(target, anchor). Transitions are pure functions so they
// can be tested without a UI toolkit:
//
//	Idle     --StartDrag-->  Dragging
//	Dragging --MoveDrag--->  Dragging   (returns a new, clamped LayoutState)
//	Dragging --EndDrag---->  Idle
package overlay

import "math"

// Anchor snapshots the pointer and every value a drag may mutate at the
// moment the drag started. Moves are computed from the anchor, never from the
// previous move, so a sequence of moves cannot accumulate rounding drift.
type Anchor struct {
	Pointer       Point   `json:"pointer"`
	BlockTopPx    float64 `json:"blockTopPx"`
	BlockHeightPx float64 `json:"blockHeightPx"`
	Offset        Point   `json:"offset"` // text offset in px
	Logo          Rect    `json:"logo"`   // content-relative px
}

// DragState is Idle when Target is TargetNone.
type DragState struct {
	Target Target `json:"target"`
	Anchor Anchor `json:"anchor"`
}

// Idle reports whether no drag is in progress.
func (d DragState) Idle() bool { return d.Target == TargetNone }

// StartDrag begins a drag on target. It refuses (returning d unchanged and
// false) when a drag is already in progress, when target is TargetNone, or when
// the target is not currently shown.
func StartDrag(d DragState, target Target, at Point, state LayoutState, vp Viewport) (DragState, bool) {
	if !d.Idle() || target == TargetNone || !finitePoint(at) {
		return d, false
	}
	if (target.isLogo() || target.isLogoResize()) && state.Logo.Kind != target.logoKind() {
		return d, false
	}
	if target == TargetAlertTag && !state.AlertEnabled {
		return d, false
	}

	vp = normalizeViewport(vp.Width, vp.Height)
	bars := ComputeBars(vp, state.Header.Enabled)
	top, h := bandPx(state, bars)

	a := Anchor{Pointer: at, BlockTopPx: top, BlockHeightPx: h}
	switch target {
	case TargetTitle:
		a.Offset = offsetPx(state.Title, vp.Width, h)
	case TargetSubtitle:
		a.Offset = offsetPx(state.Subtitle, vp.Width, h)
	case TargetAlertTag:
		a.Offset = offsetPx(state.Alert, vp.Width, h)
	}
	if target.isLogo() || target.isLogoResize() {
		w := PctToPx(state.Logo.WidthPct, vp.Width)
		a.Logo = Rect{
			X:      PctToPx(state.Logo.XPct, vp.Width),
			Y:      PctToPx(state.Logo.YPct, bars.ContentHeight),
			Width:  w,
			Height: w / state.Logo.Kind.Aspect(),
		}
	}
	return DragState{Target: target, Anchor: a}, true
}

// MoveDrag applies the target's update rule for a pointer at `at` and returns
// the clamped result. Every returned state is complete and valid; deltas that
// push an element out of bounds saturate at the bound.
func MoveDrag(d DragState, at Point, state LayoutState, vp Viewport) LayoutState {
	if d.Idle() || !finitePoint(at) {
		return state
	}
	vp = normalizeViewport(vp.Width, vp.Height)
	bars := ComputeBars(vp, state.Header.Enabled)
	a := d.Anchor
	dx := at.X - a.Pointer.X
	dy := at.Y - a.Pointer.Y

	switch d.Target {
	case TargetBlock:
		h := clampBandHeight(a.BlockHeightPx, bars)
		top := clampBandTop(a.BlockTopPx+dy, h, bars)
		state.BlockTopPct = BlockTopPxToPct(top, bars)
		state.OverlayHeightPct = PxToPct(h, bars.ContentHeight)

	case TargetResize:
		h := clampBandHeight(a.BlockHeightPx+dy, bars)
		top := clampBandTop(a.BlockTopPx, h, bars)
		state.BlockTopPct = BlockTopPxToPct(top, bars)
		state.OverlayHeightPct = PxToPct(h, bars.ContentHeight)

	case TargetTitle:
		state.Title = offsetPct(a.Offset, dx, dy, vp.Width, a.BlockHeightPx)
	case TargetSubtitle:
		state.Subtitle = offsetPct(a.Offset, dx, dy, vp.Width, a.BlockHeightPx)
	case TargetAlertTag:
		state.Alert = offsetPct(a.Offset, dx, dy, vp.Width, a.BlockHeightPx)

	case TargetLogoCircle, TargetLogoHorizontal:
		if state.Logo.Kind != d.Target.logoKind() {
			return state
		}
		x := clamp(a.Logo.X+dx, 0, vp.Width-a.Logo.Width)
		y := clamp(a.Logo.Y+dy, 0, bars.ContentHeight-a.Logo.Height)
		state.Logo.XPct = PxToPct(x, vp.Width)
		state.Logo.YPct = PxToPct(y, bars.ContentHeight)

	case TargetLogoCircleResize, TargetLogoHorizontalResize:
		if state.Logo.Kind != d.Target.logoKind() {
			return state
		}
		pct := clamp(PxToPct(a.Logo.Width+dx, vp.Width), LogoMinWidthPct, LogoMaxWidthPct)
		w := PctToPx(pct, vp.Width)
		h := w / state.Logo.Kind.Aspect()
		// A larger logo may now overflow; re-clamp the anchored position.
		x := clamp(a.Logo.X, 0, vp.Width-w)
		y := clamp(a.Logo.Y, 0, bars.ContentHeight-h)
		state.Logo.WidthPct = pct
		state.Logo.XPct = PxToPct(x, vp.Width)
		state.Logo.YPct = PxToPct(y, bars.ContentHeight)
	}
	return state
}

// EndDrag returns to Idle unconditionally.
func EndDrag(DragState) DragState {
	return DragState{}
}

func offsetPx(off TextOffset, canvasW, bandH float64) Point {
	return Point{X: ratioPx(off.XPct, canvasW), Y: ratioPx(off.YPct, bandH)}
}

func offsetPct(anchor Point, dx, dy, canvasW, bandH float64) TextOffset {
	return TextOffset{
		XPct: ratioPct(anchor.X+dx, canvasW),
		YPct: ratioPct(anchor.Y+dy, bandH),
	}
}

func finitePoint(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
