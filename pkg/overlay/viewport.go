// viewport.go — Live preview box measurement with a fixed fallback.
package overlay

import "math"

// ViewportModel caches the last measured size of the preview box.
// Hosts re-measure on window resize and whenever the base image changes.
type ViewportModel struct {
	current Viewport
}

// NewViewportModel starts with the fallback viewport until the first measurement.
func NewViewportModel() *ViewportModel {
	return &ViewportModel{current: fallbackViewport()}
}

// Measure records the rendered box size and returns the resulting viewport.
// A zero, negative or non-finite height falls back to FallbackViewportHeight;
// a bad width is derived from the height at 16:9.
func (m *ViewportModel) Measure(width, height float64) Viewport {
	m.current = normalizeViewport(width, height)
	return m.current
}

// MeasureImage derives the box height from the image aspect ratio when the box
// is width-constrained, which is how the preview reacts to image load.
func (m *ViewportModel) MeasureImage(boxWidth, imageWidth, imageHeight float64) Viewport {
	if !valid(imageWidth) || !valid(imageHeight) {
		return m.Measure(boxWidth, 0)
	}
	if !valid(boxWidth) {
		boxWidth = m.current.Width
	}
	return m.Measure(boxWidth, boxWidth*imageHeight/imageWidth)
}

// Current returns the cached viewport.
func (m *ViewportModel) Current() Viewport {
	return m.current
}

func normalizeViewport(width, height float64) Viewport {
	if !valid(height) {
		height = FallbackViewportHeight
	}
	if !valid(width) {
		width = height * ReferenceWidth / ReferenceHeight
	}
	return Viewport{Width: width, Height: height}
}

func fallbackViewport() Viewport {
	return normalizeViewport(0, 0)
}

func valid(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
