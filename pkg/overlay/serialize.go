// serialize.go — The layout contract sent to the render service.
package overlay

import (
	"fmt"
	"math"
)

// Payload is the optionsJson document posted to the render service.
type Payload struct {
	Layout LayoutPayload `json:"layout"`
	Colors ColorsPayload `json:"colors"`
}

// LayoutPayload describes overlay placement. Field order is part of the
// contract. blockTopPct and overlayHeightPct are percent of the content box;
// logoOverlay.yPct is percent of the whole reference canvas.
type LayoutPayload struct {
	TextPosition     string       `json:"textPosition"`
	BlockTopPct      float64      `json:"blockTopPct"`
	OverlayHeightPct float64      `json:"overlayHeightPct"`
	OverlayOpacity   float64      `json:"overlayOpacity"`
	TitleFontPx      float64      `json:"titleFontPx"`
	SubtitleFontPx   float64      `json:"subtitleFontPx"`
	HeaderStrip      *HeaderStrip `json:"headerStrip"`
	FooterLeft       FooterLeft   `json:"footerLeft"`
	LogoOverlay      LogoOverlay  `json:"logoOverlay"`
	TextOffsets      TextOffsets  `json:"textOffsets"`
}

// HeaderStrip is null in the payload when the header is disabled.
type HeaderStrip struct {
	Date  *string `json:"date"`
	Label *string `json:"label"`
}

// FooterLeft is the fixed footer lockup.
type FooterLeft struct {
	Enabled bool   `json:"enabled"`
	Kind    string `json:"kind"`
}

// LogoOverlay carries only Enabled=false when no logo is active.
type LogoOverlay struct {
	Enabled  bool     `json:"enabled"`
	Kind     string   `json:"kind,omitempty"`
	XPct     *float64 `json:"xPct,omitempty"`
	YPct     *float64 `json:"yPct,omitempty"`
	WidthPct *float64 `json:"widthPct,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
}

// TextOffsets positions text inside the band (x: % canvas width, y: % band height).
type TextOffsets struct {
	Title    TextOffset  `json:"title"`
	Subtitle TextOffset  `json:"subtitle"`
	AlertTag AlertOffset `json:"alertTag"`
}

// AlertOffset is a TextOffset with a visibility flag.
type AlertOffset struct {
	Enabled bool    `json:"enabled"`
	XPct    float64 `json:"xPct"`
	YPct    float64 `json:"yPct"`
}

// ColorsPayload is the theme as the render service expects it.
type ColorsPayload struct {
	Theme    string `json:"theme"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Handle   string `json:"handle"`
	AlertBg  string `json:"alertBg"`
}

// Serialize converts state into the render contract. Band percentages are
// recomputed from the viewport measured at submit time: the pixel clamps on
// band height depend on the live content box, so a cached percentage from an
// earlier viewport can be stale. Logo Y is converted from content-box percent
// to whole-canvas percent; band and text coordinates stay content-relative.
func Serialize(state LayoutState, vp Viewport) Payload {
	vp = normalizeViewport(vp.Width, vp.Height)
	bars := ComputeBars(vp, state.Header.Enabled)
	top, h := bandPx(state, bars)
	theme := LookupTheme(state.Theme)

	p := Payload{
		Layout: LayoutPayload{
			TextPosition:     "custom",
			BlockTopPct:      round2(BlockTopPxToPct(top, bars)),
			OverlayHeightPct: round2(PxToPct(h, bars.ContentHeight)),
			OverlayOpacity:   round3(clamp(state.OverlayOpacity, 0, 1)),
			TitleFontPx:      round2(state.TitleFontPx),
			SubtitleFontPx:   round2(state.SubtitleFontPx),
			FooterLeft:       FooterLeft{Enabled: true, Kind: "lockup"},
			TextOffsets: TextOffsets{
				Title:    roundOffset(state.Title),
				Subtitle: roundOffset(state.Subtitle),
				AlertTag: AlertOffset{
					Enabled: state.AlertEnabled,
					XPct:    round2(state.Alert.XPct),
					YPct:    round2(state.Alert.YPct),
				},
			},
		},
		Colors: ColorsPayload{
			Theme:    theme.Name,
			Title:    theme.Title,
			Subtitle: theme.Subtitle,
			Handle:   theme.Handle,
			AlertBg:  theme.AlertBg,
		},
	}

	if state.Header.Enabled {
		p.Layout.HeaderStrip = &HeaderStrip{
			Date:  nullable(state.Header.Date),
			Label: nullable(state.Header.Label),
		}
	}

	if state.Logo.Enabled() {
		l := clampLogo(state.Logo, vp.Width, bars)
		p.Layout.LogoOverlay = LogoOverlay{
			Enabled:  true,
			Kind:     string(l.Kind),
			XPct:     ptr(round2(l.XPct)), // content width == canvas width
			YPct:     ptr(round2(ContentYPctToCanvasYPct(l.YPct, state.Header.Enabled))),
			WidthPct: ptr(round2(l.WidthPct)),
			Opacity:  ptr(round3(l.Opacity)),
		}
	}
	return p
}

// MarshalPayload encodes p as the optionsJson field value.
func MarshalPayload(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// UnmarshalPayload decodes an optionsJson document.
func UnmarshalPayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}

// FromPayload rebuilds an editable state from a serialized contract, undoing
// the canvas conversion of the logo Y. Copy fields the contract does not carry
// come from DefaultLayout.
func FromPayload(p Payload) LayoutState {
	s := DefaultLayout()
	l := p.Layout
	s.BlockTopPct = clamp(l.BlockTopPct, 0, 100)
	s.OverlayHeightPct = clamp(l.OverlayHeightPct, 0, 100)
	s.OverlayOpacity = clamp(l.OverlayOpacity, 0, 1)
	if l.TitleFontPx > 0 {
		s.TitleFontPx = l.TitleFontPx
	}
	if l.SubtitleFontPx > 0 {
		s.SubtitleFontPx = l.SubtitleFontPx
	}

	s.Header = Header{}
	if l.HeaderStrip != nil {
		s.Header.Enabled = true
		if l.HeaderStrip.Date != nil {
			s.Header.Date = *l.HeaderStrip.Date
		}
		if l.HeaderStrip.Label != nil {
			s.Header.Label = *l.HeaderStrip.Label
		}
	}

	s.Title = l.TextOffsets.Title
	s.Subtitle = l.TextOffsets.Subtitle
	s.Alert = TextOffset{XPct: l.TextOffsets.AlertTag.XPct, YPct: l.TextOffsets.AlertTag.YPct}
	s.AlertEnabled = l.TextOffsets.AlertTag.Enabled

	s.Logo.Kind = LogoNone
	if lo := l.LogoOverlay; lo.Enabled {
		s.Logo.Kind = LogoKind(lo.Kind)
		if s.Logo.Kind != LogoHorizontal {
			s.Logo.Kind = LogoCircle
		}
		if lo.XPct != nil {
			s.Logo.XPct = clamp(*lo.XPct, 0, 100)
		}
		if lo.YPct != nil {
			s.Logo.YPct = CanvasYPctToContentYPct(*lo.YPct, s.Header.Enabled)
		}
		if lo.WidthPct != nil {
			s.Logo.WidthPct = clamp(*lo.WidthPct, LogoMinWidthPct, LogoMaxWidthPct)
		}
		if lo.Opacity != nil {
			s.Logo.Opacity = clamp(*lo.Opacity, LogoMinOpacity, LogoMaxOpacity)
		}
	}

	if HasTheme(p.Colors.Theme) {
		s.Theme = LookupTheme(p.Colors.Theme).Name
	}
	return s
}

func roundOffset(o TextOffset) TextOffset {
	return TextOffset{XPct: round2(o.XPct), YPct: round2(o.YPct)}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptr(v float64) *float64 { return &v }
