package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xob0t/CoverStencil/pkg/overlay"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	b, err := New(zaptest.NewLogger(t))
	require.NoError(t, err)
	return b
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Set(i%w, i/w, color.RGBA{G: 180, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestBridge_RequiresEditor(t *testing.T) {
	b := newTestBridge(t)

	_, err := b.Dispatch(`{"type":"reset"}`)
	assert.ErrorIs(t, err, ErrNoEditor)
	_, err = b.Payload(0, 0)
	assert.ErrorIs(t, err, ErrNoEditor)
	_, err = b.Overlay()
	assert.ErrorIs(t, err, ErrNoEditor)
	_, err = b.RenderPreview(context.Background(), "landscape")
	assert.ErrorIs(t, err, ErrNoEditor)
}

func TestBridge_EditorLifecycle(t *testing.T) {
	b := newTestBridge(t)

	out, err := b.NewEditor("?theme=grafito&logo=none&nope=1", 1280, 720)
	require.NoError(t, err)
	var created editorView
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "grafito", created.State.Theme)
	assert.Equal(t, []string{`unknown parameter "nope"; ignored`}, created.Warnings)
	assert.Nil(t, created.Handled)

	out, err = b.Dispatch(`{"type":"pointerdown","target":"resize","x":10,"y":600}`)
	require.NoError(t, err)
	var v editorView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.NotNil(t, v.Handled)
	assert.True(t, *v.Handled)

	out, err = b.Dispatch(`{"type":"pointermove","x":10,"y":700}`)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	// The band height saturates at its 260px maximum.
	assert.InDelta(t, 260, v.Overlay.Band.Height, 0.01)
	assert.InDelta(t, 390.92, v.Overlay.Band.Y, 0.01)

	_, err = b.Dispatch(`{"type":"wiggle"}`)
	assert.Error(t, err)

	out, err = b.Payload(0, 0)
	require.NoError(t, err)
	p, err := overlay.UnmarshalPayload([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "grafito", p.Colors.Theme)
	assert.Equal(t, 58.0, p.Layout.BlockTopPct)

	out, err = b.Payload(320, 180)
	require.NoError(t, err)
	p, err = overlay.UnmarshalPayload([]byte(out))
	require.NoError(t, err)
	assert.LessOrEqual(t, p.Layout.BlockTopPct+p.Layout.OverlayHeightPct, 100.0)

	out, err = b.Overlay()
	require.NoError(t, err)
	var o overlay.Overlay
	require.NoError(t, json.Unmarshal([]byte(out), &o))
	assert.Equal(t, 1280.0, o.Canvas.Width)
}

func TestBridge_Assets(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.NewEditor("", 640, 360)
	require.NoError(t, err)

	assert.Error(t, b.RegisterAsset("photo", "%%%", 640))
	assert.Error(t, b.RegisterAsset("photo", base64.StdEncoding.EncodeToString([]byte("text")), 640))

	require.NoError(t, b.RegisterAsset("photo", pngBase64(t, 40, 50), 640))
	out, err := b.Overlay()
	require.NoError(t, err)
	var o overlay.Overlay
	require.NoError(t, json.Unmarshal([]byte(out), &o))
	assert.Equal(t, overlay.Viewport{Width: 640, Height: 800}, o.Canvas)

	require.NoError(t, b.RegisterAsset("logo-circle.png", pngBase64(t, 4, 4), 0))
	assert.False(t, b.chain.Resolve(context.Background(), overlay.LogoCircle).Placeholder)

	png64, err := b.RenderPreview(context.Background(), "landscape")
	require.NoError(t, err)
	data, err := base64.StdEncoding.DecodeString(png64)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Width)

	_, err = b.RenderPreview(context.Background(), "billboard")
	assert.ErrorContains(t, err, "unknown template")

	b.RemoveAsset("logo-circle.png")
	assert.True(t, b.chain.Resolve(context.Background(), overlay.LogoCircle).Placeholder)
	b.RemoveAsset("photo")
	assert.Empty(t, b.photo)
}
