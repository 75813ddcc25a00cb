package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	return NewEditor(DefaultLayout(), WithViewport(1280, 720), WithLogger(zaptest.NewLogger(t)))
}

func TestEditor_LogoMutualExclusion(t *testing.T) {
	e := newTestEditor(t)
	require.True(t, e.State().Logo.CircleEnabled())

	require.True(t, e.Dispatch(SetLogo{Kind: LogoHorizontal, Enabled: true}))
	assert.True(t, e.State().Logo.HorizontalEnabled())
	assert.False(t, e.State().Logo.CircleEnabled())

	require.True(t, e.Dispatch(SetLogo{Kind: LogoCircle, Enabled: true}))
	assert.True(t, e.State().Logo.CircleEnabled())
	assert.False(t, e.State().Logo.HorizontalEnabled())

	// Disabling the inactive variant is a no-op.
	assert.False(t, e.Dispatch(SetLogo{Kind: LogoHorizontal, Enabled: false}))
	assert.True(t, e.State().Logo.CircleEnabled())

	require.True(t, e.Dispatch(SetLogo{Kind: LogoCircle, Enabled: false}))
	assert.False(t, e.State().Logo.Enabled())

	assert.False(t, e.Dispatch(SetLogo{Kind: "square", Enabled: true}))
}

func TestEditor_SwitchingLogoEndsItsDrag(t *testing.T) {
	e := newTestEditor(t)
	require.True(t, e.Dispatch(PointerDown{Target: TargetLogoCircle, X: 1150, Y: 50}))

	e.Dispatch(SetLogo{Kind: LogoHorizontal, Enabled: true})
	assert.True(t, e.Drag().Idle())
	assert.False(t, e.Dispatch(PointerMove{X: 10, Y: 10}))
}

func TestEditor_DragLifecycle(t *testing.T) {
	e := newTestEditor(t)
	top0 := e.Overlay().Band.Y

	assert.True(t, e.Dispatch(PointerDownAt{X: 640, Y: 420}))
	assert.Equal(t, TargetBlock, e.Drag().Target)

	// A second press while dragging is ignored.
	assert.False(t, e.Dispatch(PointerDown{Target: TargetTitle, X: 1, Y: 1}))
	assert.Equal(t, TargetBlock, e.Drag().Target)

	assert.True(t, e.Dispatch(PointerMove{X: 640, Y: 400}))
	assert.InDelta(t, top0-20, e.Overlay().Band.Y, 1e-6)

	assert.True(t, e.Dispatch(PointerUp{}))
	assert.True(t, e.Drag().Idle())
	assert.False(t, e.Dispatch(PointerUp{}))
	assert.False(t, e.Dispatch(PointerMove{X: 0, Y: 0}))
}

func TestEditor_PointerDownOnNothing(t *testing.T) {
	e := newTestEditor(t)
	assert.False(t, e.Dispatch(PointerDownAt{X: 640, Y: 100}))
	assert.True(t, e.Drag().Idle())
}

func TestEditor_CancelAndImageChangeEndDrag(t *testing.T) {
	tests := map[string]struct {
		action Action
		reset  bool
	}{
		"cancel":         {action: Cancel{}},
		"cancel restore": {action: Cancel{Restore: true}, reset: true},
		"image changed":  {action: ImageChanged{BoxWidth: 640, ImageWidth: 1280, ImageHeight: 720}},
		"reset":          {action: Reset{}, reset: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := newTestEditor(t)
			require.True(t, e.Dispatch(PointerDownAt{X: 640, Y: 420}))
			require.True(t, e.Dispatch(PointerMove{X: 640, Y: 300}))
			moved := e.State().BlockTopPct

			assert.True(t, e.Dispatch(tc.action))
			assert.True(t, e.Drag().Idle())
			if tc.reset {
				assert.InDelta(t, 58, e.State().BlockTopPct, 1e-9)
			} else {
				assert.InDelta(t, moved, e.State().BlockTopPct, 1e-9)
			}
		})
	}
}

func TestEditor_ImageChangedRemeasures(t *testing.T) {
	e := newTestEditor(t)
	e.Dispatch(ImageChanged{BoxWidth: 800, ImageWidth: 1080, ImageHeight: 1350})
	assert.Equal(t, Viewport{Width: 800, Height: 1000}, e.Viewport())
}

func TestEditor_ResizeKeepsPercentages(t *testing.T) {
	e := newTestEditor(t)
	before := e.State()

	require.True(t, e.Dispatch(Resize{Width: 320, Height: 180}))
	assert.Equal(t, before, e.State())

	// The payload is recomputed for the small box: footer 12, content 168,
	// band height clamps up to 90 px and the top clamps down to 78 px.
	p := e.Payload()
	assert.InDelta(t, 53.57, p.Layout.OverlayHeightPct, 1e-9)
	assert.InDelta(t, 46.43, p.Layout.BlockTopPct, 1e-9)
}

func TestEditor_ResizeOverlayMatchesPayload(t *testing.T) {
	tests := map[string]struct {
		width, height float64
		header        bool
	}{
		"larger box":       {width: 1920, height: 1080},
		"smaller box":      {width: 320, height: 180},
		"portrait box":     {width: 640, height: 800, header: true},
		"invalid fallback": {width: 0, height: -5},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := newTestEditor(t)
			e.Dispatch(SetHeader{Enabled: tc.header})
			require.True(t, e.Dispatch(Resize{Width: tc.width, Height: tc.height}))

			o := e.Overlay()
			bars := e.Bars()
			l := e.Payload().Layout
			assert.InDelta(t, PctToPx(l.OverlayHeightPct, bars.ContentHeight), o.Band.Height, 0.1)
			assert.InDelta(t, BlockTopPctToPx(l.BlockTopPct, bars), o.Band.Y, 0.1)
			assert.LessOrEqual(t, o.Band.Height, BandMaxHeightPx+1e-9)
			assert.GreaterOrEqual(t, o.Band.Height, min(BandMinHeightPx, bars.ContentHeight)-1e-9)
		})
	}

	// 1080 tall: content 1011, 34% would be 343.74 px but the band stops at 260.
	e := newTestEditor(t)
	e.Dispatch(Resize{Width: 1920, Height: 1080})
	assert.InDelta(t, 260, e.Overlay().Band.Height, 1e-9)
	assert.InDelta(t, 25.72, e.Payload().Layout.OverlayHeightPct, 1e-9)
	assert.InDelta(t, 34, e.State().OverlayHeightPct, 1e-9)
	assert.InDelta(t, 260/1011.0*100, e.Fitted().OverlayHeightPct, 1e-9)
}

func TestEditor_ResizeEndsDrag(t *testing.T) {
	e := newTestEditor(t)
	require.True(t, e.Dispatch(PointerDown{Target: TargetBlock, X: 10, Y: 400}))

	e.Dispatch(Resize{Width: 640, Height: 360})
	assert.True(t, e.Drag().Idle())
	assert.False(t, e.Dispatch(PointerMove{X: 10, Y: 500}))
}

func TestEditor_Sliders(t *testing.T) {
	e := newTestEditor(t)

	e.Dispatch(SetLogoWidth{Pct: 90})
	assert.Equal(t, float64(LogoMaxWidthPct), e.State().Logo.WidthPct)
	e.Dispatch(SetLogoWidth{Pct: 1})
	assert.Equal(t, float64(LogoMinWidthPct), e.State().Logo.WidthPct)

	e.Dispatch(SetLogoOpacity{Value: 0})
	assert.Equal(t, LogoMinOpacity, e.State().Logo.Opacity)
	e.Dispatch(SetOverlayOpacity{Value: 1.5})
	assert.Equal(t, 1.0, e.State().OverlayOpacity)

	e.Dispatch(SetOverlayHeight{Pct: 100})
	assert.InDelta(t, 260.0/674*100, e.State().OverlayHeightPct, 1e-9)

	assert.False(t, e.Dispatch(SetFontSizes{}))
	assert.True(t, e.Dispatch(SetFontSizes{Title: 60}))
	assert.Equal(t, 60.0, e.State().TitleFontPx)
	assert.Equal(t, 26.0, e.State().SubtitleFontPx)
}

func TestEditor_HeaderAndTheme(t *testing.T) {
	e := newTestEditor(t)

	require.True(t, e.Dispatch(SetHeader{Enabled: true, Date: "19 oct", Label: "EN VIVO"}))
	assert.Equal(t, 40.0, e.Bars().HeaderH)
	assert.Equal(t, 634.0, e.Bars().ContentHeight)

	assert.False(t, e.Dispatch(SetTheme{Name: "magenta"}))
	assert.Equal(t, DefaultTheme, e.State().Theme)
	assert.True(t, e.Dispatch(SetTheme{Name: "Verde"}))
	assert.Equal(t, "verde", e.State().Theme)
}

func TestEditor_AlertTag(t *testing.T) {
	e := newTestEditor(t)
	assert.False(t, e.Dispatch(PointerDown{Target: TargetAlertTag, X: 40, Y: 400}))

	e.Dispatch(SetAlertTag{Enabled: true})
	require.True(t, e.Dispatch(PointerDown{Target: TargetAlertTag, X: 40, Y: 400}))
	e.Dispatch(SetAlertTag{Enabled: false})
	assert.True(t, e.Drag().Idle())
}

func TestEditor_SetText(t *testing.T) {
	e := newTestEditor(t)
	title := "Nuevo titular"
	e.Dispatch(SetText{Title: &title})
	assert.Equal(t, title, e.State().Texts.Title)
	assert.Equal(t, "Última hora", e.State().Texts.AlertTag)
}

func TestEditor_NilAction(t *testing.T) {
	assert.False(t, newTestEditor(t).Dispatch(nil))
}
