// Package overlay is the layout engine behind the cover-image editor.
//
// It positions a gradient band, title, subtitle, alert tag and one brand logo
// over a base photograph shown in a live preview box, and normalizes the
// result into a resolution-independent LayoutState that the render service
// bakes into fixed-size output templates.
//
// Three coordinate spaces are involved:
//   - live viewport pixels (the preview box as measured by the host),
//   - the fixed 1280×720 reference canvas the render service assumes,
//   - percentages (of the content box, the band, or the whole canvas).
package overlay

// ── Reference canvas ──

const (
	// ReferenceWidth and ReferenceHeight describe the canvas the render
	// service assumes when it is told a percentage is canvas-relative.
	ReferenceWidth  = 1280
	ReferenceHeight = 720

	// HeaderBaselinePx and FooterBaselinePx are the bar heights at the
	// 720 px reference height. Live bars scale by viewport height / 720.
	HeaderBaselinePx = 40
	FooterBaselinePx = 46

	// FallbackViewportHeight keeps the math defined when measurement fails.
	FallbackViewportHeight = 360
)

// ── Clamp limits ──

const (
	BandMinHeightPx = 90
	BandMaxHeightPx = 260
	// BandMarginPx is the minimum gap between the content top and the band.
	BandMarginPx = 0

	LogoMinWidthPct = 6
	LogoMaxWidthPct = 40
	LogoMinOpacity  = 0.2
	LogoMaxOpacity  = 1
)

// ── Geometry primitives ──

// Viewport is the live size of the preview box in CSS pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a pointer position or an offset in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box in pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether (x, y) lies inside r. Right and bottom edges are outside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// ── Draggable elements ──

// Target names the element (or handle) a pointer interaction acts on.
type Target int

const (
	TargetNone Target = iota
	TargetBlock
	TargetResize
	TargetTitle
	TargetSubtitle
	TargetAlertTag
	TargetLogoCircle
	TargetLogoHorizontal
	TargetLogoCircleResize
	TargetLogoHorizontalResize
)

var targetNames = map[Target]string{
	TargetNone:                 "none",
	TargetBlock:                "block",
	TargetResize:               "resize",
	TargetTitle:                "title",
	TargetSubtitle:             "subtitle",
	TargetAlertTag:             "alertTag",
	TargetLogoCircle:           "logoCircle",
	TargetLogoHorizontal:       "logoHorizontal",
	TargetLogoCircleResize:     "logoCircleResize",
	TargetLogoHorizontalResize: "logoHorizontalResize",
}

func (t Target) String() string {
	if s, ok := targetNames[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes t by its wire name.
func (t Target) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a wire name; unknown names decode as TargetNone.
func (t *Target) UnmarshalText(b []byte) error {
	*t = ParseTarget(string(b))
	return nil
}

// ParseTarget maps a wire name back to a Target. Unknown names yield TargetNone.
func ParseTarget(s string) Target {
	for t, name := range targetNames {
		if name == s {
			return t
		}
	}
	return TargetNone
}

// isLogo reports whether t moves a logo.
func (t Target) isLogo() bool {
	return t == TargetLogoCircle || t == TargetLogoHorizontal
}

// isLogoResize reports whether t resizes a logo.
func (t Target) isLogoResize() bool {
	return t == TargetLogoCircleResize || t == TargetLogoHorizontalResize
}

// logoKind returns the logo kind a logo target belongs to.
func (t Target) logoKind() LogoKind {
	switch t {
	case TargetLogoCircle, TargetLogoCircleResize:
		return LogoCircle
	case TargetLogoHorizontal, TargetLogoHorizontalResize:
		return LogoHorizontal
	}
	return LogoNone
}

// LogoKind selects which brand mark is overlaid. A single field keeps the
// circle and horizontal variants mutually exclusive.
type LogoKind string

const (
	LogoNone       LogoKind = ""
	LogoCircle     LogoKind = "circle"
	LogoHorizontal LogoKind = "horizontal"
)

// Aspect returns width/height of the logo artwork for the kind.
func (k LogoKind) Aspect() float64 {
	if k == LogoHorizontal {
		return 3.2
	}
	return 1
}

// ── Layout state ──

// TextOffset positions a text element inside the band. XPct is a percent of
// the canvas width, YPct a percent of the band height. Neither is clamped.
type TextOffset struct {
	XPct float64 `json:"xPct"`
	YPct float64 `json:"yPct"`
}

// Logo is the logo overlay while editing. XPct/WidthPct are percent of the
// content width; YPct is percent of the content box height.
type Logo struct {
	Kind     LogoKind `json:"kind"`
	XPct     float64  `json:"xPct"`
	YPct     float64  `json:"yPct"`
	WidthPct float64  `json:"widthPct"`
	Opacity  float64  `json:"opacity"`
}

// Enabled reports whether any logo variant is active.
func (l Logo) Enabled() bool { return l.Kind != LogoNone }

// CircleEnabled reports whether the circular variant is active.
func (l Logo) CircleEnabled() bool { return l.Kind == LogoCircle }

// HorizontalEnabled reports whether the horizontal variant is active.
func (l Logo) HorizontalEnabled() bool { return l.Kind == LogoHorizontal }

// Header is the optional date/label strip above the content box.
type Header struct {
	Enabled bool   `json:"enabled"`
	Date    string `json:"date"`
	Label   string `json:"label"`
}

// Texts holds the copy shown on the cover.
type Texts struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	AlertTag string `json:"alertTag"`
	Handle   string `json:"handle"`
}

// LayoutState is the normalized snapshot of every overlay position and size.
// BlockTopPct and OverlayHeightPct are percent of the content box height.
type LayoutState struct {
	BlockTopPct      float64    `json:"blockTopPct"`
	OverlayHeightPct float64    `json:"overlayHeightPct"`
	OverlayOpacity   float64    `json:"overlayOpacity"`
	TitleFontPx      float64    `json:"titleFontPx"`
	SubtitleFontPx   float64    `json:"subtitleFontPx"`
	Title            TextOffset `json:"title"`
	Subtitle         TextOffset `json:"subtitle"`
	Alert            TextOffset `json:"alert"`
	AlertEnabled     bool       `json:"alertEnabled"`
	Logo             Logo       `json:"logo"`
	Header           Header     `json:"header"`
	Texts            Texts      `json:"texts"`
	Theme            string     `json:"theme"`
}

// ── Output templates ──

// Template is one fixed-pixel output the render service produces.
type Template struct {
	Name    string `json:"name"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Preview bool   `json:"preview"`
}

// Templates lists the render service outputs. Preview templates are the ones
// drawn side by side for visual QA before submission.
var Templates = []Template{
	{Name: "landscape", Width: 1280, Height: 720, Preview: true},
	{Name: "square", Width: 1080, Height: 1080, Preview: true},
	{Name: "portrait", Width: 1080, Height: 1350, Preview: true},
	{Name: "story", Width: 1080, Height: 1920},
}

// PreviewTemplates returns the templates drawn for visual QA.
func PreviewTemplates() []Template {
	var out []Template
	for _, t := range Templates {
		if t.Preview {
			out = append(out, t)
		}
	}
	return out
}

// LookupTemplate finds a template by name.
func LookupTemplate(name string) (Template, bool) {
	for _, t := range Templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}
