// regions.go — Header/footer bar heights and the content box they leave.
package overlay

import "math"

// Bars is the vertical split of a viewport. Everything band- or
// logo-related is positioned relative to the content box.
type Bars struct {
	HeaderH       float64 `json:"headerH"`
	FooterH       float64 `json:"footerH"`
	ContentTop    float64 `json:"contentTop"`
	ContentHeight float64 `json:"contentHeight"`
}

// ComputeBars scales the baseline bar heights by viewport height / 720 so the
// bars keep their proportion at any preview size.
func ComputeBars(vp Viewport, headerEnabled bool) Bars {
	vp = normalizeViewport(vp.Width, vp.Height)
	scale := vp.Height / ReferenceHeight

	footerH := math.Round(FooterBaselinePx * scale)
	var headerH float64
	if headerEnabled {
		headerH = math.Round(HeaderBaselinePx * scale)
	}

	return Bars{
		HeaderH:       headerH,
		FooterH:       footerH,
		ContentTop:    headerH,
		ContentHeight: math.Max(1, vp.Height-footerH-headerH),
	}
}

// BaselineBars returns the bars of the 1280×720 reference canvas.
func BaselineBars(headerEnabled bool) Bars {
	return ComputeBars(Viewport{Width: ReferenceWidth, Height: ReferenceHeight}, headerEnabled)
}
