// geometry.go — Place a LayoutState on a concrete canvas and hit-test it.
package overlay

import (
	"math"
	"unicode/utf8"
)

const (
	// handleSizePx is the side of the logo resize handle square.
	handleSizePx = 14
	// resizeStripPx is the height of the band resize handle.
	resizeStripPx = 12
	// textLeftPadPx is the band's inner left padding at reference width.
	textLeftPadPx = 24

	emPerRune  = 0.56
	lineHeight = 1.25
	alertScale = 0.7
)

// TextBox is a placed text element. Rect is an estimate from font metrics;
// raster renderers measure the real glyphs.
type TextBox struct {
	Rect    Rect    `json:"rect"`
	FontPx  float64 `json:"fontPx"`
	Text    string  `json:"text"`
	Visible bool    `json:"visible"`
}

// LogoBox is the placed logo and its resize handle.
type LogoBox struct {
	Rect    Rect     `json:"rect"`
	Handle  Rect     `json:"handle"`
	Kind    LogoKind `json:"kind"`
	Opacity float64  `json:"opacity"`
}

// Overlay is the pixel geometry of a LayoutState on one canvas.
type Overlay struct {
	Canvas   Viewport `json:"canvas"`
	Bars     Bars     `json:"bars"`
	Scale    float64  `json:"scale"`    // canvas width / reference width
	BarScale float64  `json:"barScale"` // canvas height / reference height
	Header   Rect     `json:"header"`
	Footer   Rect     `json:"footer"`
	Band     Rect     `json:"band"`
	Resize   Rect     `json:"resize"`
	Title    TextBox  `json:"title"`
	Subtitle TextBox  `json:"subtitle"`
	Alert    TextBox  `json:"alert"`
	Logo     LogoBox  `json:"logo"`
	Opacity  float64  `json:"opacity"`
	Theme    Theme    `json:"theme"`
}

// RenderOverlay places state on a width×height canvas. It is a pure function
// of its inputs: the band keeps its relative position and height within the
// content box, text offsets keep their relative position within the band, and
// the header/footer bars, fonts and left padding scale with the canvas the same
// way ComputeBars scales the live preview.
func RenderOverlay(state LayoutState, width, height float64, headerEnabled bool) Overlay {
	vp := normalizeViewport(width, height)
	bars := ComputeBars(vp, headerEnabled)
	scale := vp.Width / ReferenceWidth

	o := Overlay{
		Canvas:   vp,
		Bars:     bars,
		Scale:    scale,
		BarScale: vp.Height / ReferenceHeight,
		Header:   Rect{X: 0, Y: 0, Width: vp.Width, Height: bars.HeaderH},
		Footer:   Rect{X: 0, Y: vp.Height - bars.FooterH, Width: vp.Width, Height: bars.FooterH},
		Opacity:  clamp(state.OverlayOpacity, 0, 1),
		Theme:    LookupTheme(state.Theme),
	}

	o.Band = Rect{
		X:      0,
		Y:      BlockTopPctToPx(state.BlockTopPct, bars),
		Width:  vp.Width,
		Height: PctToPx(state.OverlayHeightPct, bars.ContentHeight),
	}
	o.Resize = Rect{X: 0, Y: o.Band.Bottom() - resizeStripPx, Width: vp.Width, Height: resizeStripPx}

	o.Title = placeText(o.Band, vp.Width, scale, state.Title, state.TitleFontPx*scale, state.Texts.Title, true)
	o.Subtitle = placeText(o.Band, vp.Width, scale, state.Subtitle, state.SubtitleFontPx*scale, state.Texts.Subtitle, true)
	o.Alert = placeText(o.Band, vp.Width, scale, state.Alert, state.SubtitleFontPx*alertScale*scale, state.Texts.AlertTag, state.AlertEnabled)

	if state.Logo.Enabled() {
		o.Logo = placeLogo(state.Logo, vp.Width, bars)
	}
	return o
}

// Geometry places state on the live viewport, using the state's own header
// flag. The band and logo are clamped to vp first, exactly as Serialize clamps
// them, so the live preview and the payload always agree.
func Geometry(state LayoutState, vp Viewport) Overlay {
	vp = normalizeViewport(vp.Width, vp.Height)
	return RenderOverlay(Fit(state, vp), vp.Width, vp.Height, state.Header.Enabled)
}

func placeText(band Rect, canvasW, scale float64, off TextOffset, fontPx float64, text string, visible bool) TextBox {
	x := band.X + textLeftPadPx*scale + ratioPx(off.XPct, canvasW)
	y := band.Y + ratioPx(off.YPct, band.Height)
	runes := max(utf8.RuneCountInString(text), 1)
	return TextBox{
		Rect: Rect{
			X:      x,
			Y:      y,
			Width:  math.Min(float64(runes)*emPerRune*fontPx, canvasW),
			Height: fontPx * lineHeight,
		},
		FontPx:  fontPx,
		Text:    text,
		Visible: visible && text != "",
	}
}

func placeLogo(l Logo, contentW float64, bars Bars) LogoBox {
	w := PctToPx(l.WidthPct, contentW)
	h := w / l.Kind.Aspect()
	r := Rect{
		X:      PctToPx(l.XPct, contentW),
		Y:      bars.ContentTop + PctToPx(l.YPct, bars.ContentHeight),
		Width:  w,
		Height: h,
	}
	return LogoBox{
		Rect:    r,
		Handle:  Rect{X: r.Right() - handleSizePx, Y: r.Bottom() - handleSizePx, Width: handleSizePx, Height: handleSizePx},
		Kind:    l.Kind,
		Opacity: clamp(l.Opacity, LogoMinOpacity, LogoMaxOpacity),
	}
}

// HitTest returns the element under (x, y), checking handles before the
// elements they belong to and small elements before the band.
func HitTest(o Overlay, x, y float64) Target {
	if o.Logo.Kind != LogoNone {
		if o.Logo.Handle.Contains(x, y) {
			return logoResizeTarget(o.Logo.Kind)
		}
		if o.Logo.Rect.Contains(x, y) {
			return logoTarget(o.Logo.Kind)
		}
	}
	for _, tb := range []struct {
		box    TextBox
		target Target
	}{
		{o.Alert, TargetAlertTag},
		{o.Title, TargetTitle},
		{o.Subtitle, TargetSubtitle},
	} {
		if tb.box.Visible && tb.box.Rect.Contains(x, y) {
			return tb.target
		}
	}
	if o.Resize.Contains(x, y) {
		return TargetResize
	}
	if o.Band.Contains(x, y) {
		return TargetBlock
	}
	return TargetNone
}

func logoTarget(k LogoKind) Target {
	if k == LogoHorizontal {
		return TargetLogoHorizontal
	}
	return TargetLogoCircle
}

func logoResizeTarget(k LogoKind) Target {
	if k == LogoHorizontal {
		return TargetLogoHorizontalResize
	}
	return TargetLogoCircleResize
}

// clampBandHeight bounds a band height to [90, min(260, contentHeight)].
func clampBandHeight(h float64, bars Bars) float64 {
	hi := math.Min(BandMaxHeightPx, bars.ContentHeight)
	return clamp(h, math.Min(BandMinHeightPx, hi), hi)
}

// clampBandTop keeps a band of height h inside the content box.
func clampBandTop(top, h float64, bars Bars) float64 {
	return clamp(top, bars.ContentTop+BandMarginPx, bars.ContentTop+bars.ContentHeight-h)
}

// bandPx returns the clamped live-pixel band for state on bars.
func bandPx(state LayoutState, bars Bars) (top, h float64) {
	h = clampBandHeight(PctToPx(state.OverlayHeightPct, bars.ContentHeight), bars)
	top = clampBandTop(BlockTopPctToPx(state.BlockTopPct, bars), h, bars)
	return top, h
}

// Fit returns state with every bounded field clamped against vp: the band
// pixel clamps, logo size and position, and the opacities. A state kept with
// percentages from an earlier viewport is shown and serialized through Fit.
func Fit(state LayoutState, vp Viewport) LayoutState {
	vp = normalizeViewport(vp.Width, vp.Height)
	bars := ComputeBars(vp, state.Header.Enabled)
	top, h := bandPx(state, bars)
	state.BlockTopPct = BlockTopPxToPct(top, bars)
	state.OverlayHeightPct = PxToPct(h, bars.ContentHeight)
	state.OverlayOpacity = clamp(state.OverlayOpacity, 0, 1)
	state.Logo = clampLogo(state.Logo, vp.Width, bars)
	return state
}

// clampLogo re-bounds a logo so it fits the content box at the given width.
func clampLogo(l Logo, contentW float64, bars Bars) Logo {
	if l.Kind == LogoNone {
		return l
	}
	l.WidthPct = clamp(l.WidthPct, LogoMinWidthPct, LogoMaxWidthPct)
	l.Opacity = clamp(l.Opacity, LogoMinOpacity, LogoMaxOpacity)

	w := PctToPx(l.WidthPct, contentW)
	h := w / l.Kind.Aspect()
	x := clamp(PctToPx(l.XPct, contentW), 0, contentW-w)
	y := clamp(PctToPx(l.YPct, bars.ContentHeight), 0, bars.ContentHeight-h)
	l.XPct = PxToPct(x, contentW)
	l.YPct = PxToPct(y, bars.ContentHeight)
	return l
}
