// convert.go — Pixel/percent conversions between the three coordinate spaces.
package overlay

import "math"

// PxToPct expresses px as a percent of sizePx, clamped to [0, 100].
func PxToPct(px, sizePx float64) float64 {
	return clamp(px/math.Max(1, sizePx)*100, 0, 100)
}

// PctToPx is the inverse of PxToPct.
func PctToPx(pct, sizePx float64) float64 {
	return clamp(pct, 0, 100) / 100 * math.Max(1, sizePx)
}

// BlockTopPxToPct converts a viewport-relative band top into a percent of the
// content box height. The header strip is subtracted first.
func BlockTopPxToPct(topPx float64, bars Bars) float64 {
	return clamp((topPx-bars.HeaderH)/bars.ContentHeight*100, 0, 100)
}

// BlockTopPctToPx is the inverse of BlockTopPxToPct.
func BlockTopPctToPx(pct float64, bars Bars) float64 {
	return bars.ContentTop + PctToPx(pct, bars.ContentHeight)
}

// ContentYPctToCanvasYPct converts a logo Y from percent of the content box to
// percent of the whole reference canvas, which is how the render service reads
// logoOverlay.yPct. The conversion runs against the 720 px baseline rather
// than the live viewport because the service always renders at the reference
// resolution.
//
// Band and text coordinates are NOT converted this way; they stay relative to
// the content box. The asymmetry matches the render service and must be kept
// as long as the service reads the fields this way.
func ContentYPctToCanvasYPct(yContentPct float64, headerEnabled bool) float64 {
	b := BaselineBars(headerEnabled)
	px := b.HeaderH + clamp(yContentPct, 0, 100)/100*b.ContentHeight
	return clamp(px/ReferenceHeight*100, 0, 100)
}

// CanvasYPctToContentYPct is the inverse of ContentYPctToCanvasYPct.
func CanvasYPctToContentYPct(yCanvasPct float64, headerEnabled bool) float64 {
	b := BaselineBars(headerEnabled)
	px := clamp(yCanvasPct, 0, 100) / 100 * ReferenceHeight
	return clamp((px-b.HeaderH)/b.ContentHeight*100, 0, 100)
}

// ratioPct converts without clamping; text offsets may sit outside the band.
func ratioPct(px, sizePx float64) float64 {
	return px / math.Max(1, sizePx) * 100
}

// ratioPx is the inverse of ratioPct.
func ratioPx(pct, sizePx float64) float64 {
	return pct / 100 * math.Max(1, sizePx)
}

// clamp bounds v to [lo, hi]. When hi < lo the lower bound wins.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
