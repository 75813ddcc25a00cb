package server

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xob0t/CoverStencil/internal/config"
	"github.com/xob0t/CoverStencil/pkg/overlay"
	"github.com/xob0t/CoverStencil/pkg/renderclient"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ── Helpers ──

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Editor.ViewportWidth = 1280
	cfg.Editor.ViewportHeight = 720
	return cfg
}

func newTestServer(t *testing.T, render *renderclient.Client) *Server {
	t.Helper()
	s, err := New(testConfig(), Deps{Render: render, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, s *Server, query, body string) sessionView {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/sessions"+query, strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionView](t, rec)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func upload(t *testing.T, s *Server, name, role string, data []byte) assetInfo {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	if role != "" {
		require.NoError(t, mw.WriteField("role", role))
	}
	require.NoError(t, mw.Close())

	rec := do(t, s, http.MethodPost, "/api/upload/image", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[assetInfo](t, rec)
}

func attachPhoto(t *testing.T, s *Server, sessionID, assetID string, boxWidth float64) sessionView {
	t.Helper()
	body, err := json.Marshal(photoRequest{AssetID: assetID, BoxWidth: boxWidth})
	require.NoError(t, err)
	rec := do(t, s, http.MethodPost, "/api/sessions/"+sessionID+"/photo", bytes.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[sessionView](t, rec)
}

// ── Sessions ──

func TestCreateSession(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("query overrides and warnings", func(t *testing.T) {
		v := createSession(t, s, "?theme=verde&logo=none&bogus=1", "")
		assert.NotEmpty(t, v.ID)
		assert.Equal(t, "verde", v.State.Theme)
		assert.Equal(t, overlay.LogoNone, v.State.Logo.Kind)
		assert.Equal(t, []string{`unknown parameter "bogus"; ignored`}, v.Warnings)
		assert.Equal(t, overlay.Viewport{Width: 1280, Height: 720}, v.Viewport)
	})

	t.Run("body sets viewport", func(t *testing.T) {
		v := createSession(t, s, "", `{"width":640,"height":360}`)
		assert.Equal(t, overlay.Viewport{Width: 640, Height: 360}, v.Viewport)
		assert.Equal(t, 640.0, v.Overlay.Canvas.Width)
	})

	t.Run("config defaults apply when query is silent", func(t *testing.T) {
		cfg := testConfig()
		cfg.Editor.DefaultTheme = "rojo"
		cfg.Editor.DefaultHeader = true
		s2, err := New(cfg, Deps{})
		require.NoError(t, err)

		v := createSession(t, s2, "", "")
		assert.Equal(t, "rojo", v.State.Theme)
		assert.True(t, v.State.Header.Enabled)

		v = createSession(t, s2, "?header=false&theme=azul", "")
		assert.Equal(t, "azul", v.State.Theme)
		assert.False(t, v.State.Header.Enabled)
	})

	t.Run("bad body", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/sessions", strings.NewReader("[1]"), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetAndDeleteSession(t *testing.T) {
	s := newTestServer(t, nil)
	v := createSession(t, s, "", "")

	rec := do(t, s, http.MethodGet, "/api/sessions/"+v.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[sessionView](t, rec)
	assert.Equal(t, v.ID, got.ID)
	assert.InDelta(t, 390.92, got.Overlay.Band.Y, 0.01)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/sessions/"+v.ID, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/sessions/"+v.ID, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/"+v.ID, nil, "").Code)
}

func TestActions(t *testing.T) {
	s := newTestServer(t, nil)
	v := createSession(t, s, "", "")
	path := "/api/sessions/" + v.ID + "/actions"

	send := func(body string) actionResult {
		t.Helper()
		rec := do(t, s, http.MethodPost, path, strings.NewReader(body), "application/json")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[actionResult](t, rec)
	}

	res := send(`{"type":"pointerdown","target":"block","x":640,"y":400}`)
	assert.True(t, res.Handled)

	rec := do(t, s, http.MethodGet, "/api/sessions/"+v.ID, nil, "")
	assert.Equal(t, overlay.TargetBlock, decode[sessionView](t, rec).Drag.Target)

	res = send(`{"type":"pointermove","x":640,"y":350}`)
	assert.True(t, res.Handled)
	assert.InDelta(t, 340.92, res.Overlay.Band.Y, 0.01)
	assert.InDelta(t, 340.92/674*100, res.State.BlockTopPct, 0.001)

	res = send(`{"type":"pointerup"}`)
	assert.True(t, res.Handled)
	res = send(`{"type":"pointerup"}`)
	assert.False(t, res.Handled, "no drag in progress")

	res = send(`{"type":"theme","name":"dorado"}`)
	assert.Equal(t, "dorado", res.State.Theme)

	tests := map[string]struct {
		path string
		body string
		want int
	}{
		"malformed json":  {path: path, body: `[1]`, want: http.StatusBadRequest},
		"unknown type":    {path: path, body: `{"type":"wiggle"}`, want: http.StatusBadRequest},
		"missing coords":  {path: path, body: `{"type":"pointermove"}`, want: http.StatusBadRequest},
		"unknown session": {path: "/api/sessions/nope/actions", body: `{"type":"reset"}`, want: http.StatusNotFound},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tc.path, strings.NewReader(tc.body), "application/json")
			assert.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestPayload(t *testing.T) {
	s := newTestServer(t, nil)
	v := createSession(t, s, "?logo=none", "")
	base := "/api/sessions/" + v.ID + "/payload"

	rec := do(t, s, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[overlay.Payload](t, rec)
	assert.Equal(t, 58.0, p.Layout.BlockTopPct)
	assert.Equal(t, 34.0, p.Layout.OverlayHeightPct)
	assert.False(t, p.Layout.LogoOverlay.Enabled)
	assert.Equal(t, "azul", p.Colors.Theme)

	// At 320×180 the content box is 168px: the band hits its 90px floor.
	rec = do(t, s, http.MethodGet, base+"?w=320&h=180", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[overlay.Payload](t, rec)
	assert.Equal(t, 53.57, p.Layout.OverlayHeightPct)
	assert.Equal(t, 46.43, p.Layout.BlockTopPct)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, base+"?w=320", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, base+"?w=a&h=1", nil, "").Code)
}

// ── Preview and photo ──

func TestPreview(t *testing.T) {
	s := newTestServer(t, nil)
	v := createSession(t, s, "", "")
	base := "/api/sessions/" + v.ID + "/preview/"

	rec := do(t, s, http.MethodGet, base+"landscape", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	cfg, err := png.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)

	rec = do(t, s, http.MethodGet, base+"square?format=jpg", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, base+"billboard", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, base+"landscape?format=gif", nil, "").Code)
}

func TestPhoto(t *testing.T) {
	s := newTestServer(t, nil)
	v := createSession(t, s, "", "")
	photo := upload(t, s, "portada.png", "photo", pngBytes(t, 80, 100))

	got := attachPhoto(t, s, v.ID, photo.ID, 640)
	assert.Equal(t, photo.ID, got.PhotoID)
	assert.Equal(t, overlay.Viewport{Width: 640, Height: 800}, got.Viewport)

	rec := do(t, s, http.MethodGet, "/api/sessions/"+v.ID+"/preview/portrait", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1080, 1350), img.Bounds())

	rec = do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/photo", strings.NewReader(`{"assetId":"missing"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ── Submit ──

func TestSubmit(t *testing.T) {
	var gotPayload overlay.Payload
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("title") == "reject" {
			http.Error(w, "title rejected", http.StatusUnprocessableEntity)
			return
		}
		p, err := overlay.UnmarshalPayload([]byte(r.FormValue("optionsJson")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotPayload = p
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"outputs":{"landscape":"/out/1.jpg"}}`)
	}))
	defer endpoint.Close()

	client := renderclient.New(renderclient.Config{Endpoint: endpoint.URL}, endpoint.Client(), zap.NewNop())
	s := newTestServer(t, client)
	v := createSession(t, s, "?title=Hola", "")
	submit := "/api/sessions/" + v.ID + "/submit"

	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodPost, submit, nil, "").Code)

	photo := upload(t, s, "portada.png", "", pngBytes(t, 16, 9))
	attachPhoto(t, s, v.ID, photo.ID, 1280)

	rec := do(t, s, http.MethodPost, submit, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]string{"landscape": "/out/1.jpg"}, decode[renderclient.Result](t, rec).Outputs)
	assert.Equal(t, "custom", gotPayload.Layout.TextPosition)
	assert.InDelta(t, 34, gotPayload.Layout.OverlayHeightPct, 1e-9)

	// A box measured at submit time re-clamps the band: at 320×180 the
	// content is 168 px and the band grows to its 90 px minimum.
	rec = do(t, s, http.MethodPost, submit+"?w=320&h=180", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 53.57, gotPayload.Layout.OverlayHeightPct, 1e-9)
	assert.InDelta(t, 46.43, gotPayload.Layout.BlockTopPct, 1e-9)

	rec = do(t, s, http.MethodGet, "/api/sessions/"+v.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, overlay.Viewport{Width: 320, Height: 180}, decode[sessionView](t, rec).Viewport)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, submit+"?w=wide", nil, "").Code)

	rec = do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/actions", strings.NewReader(`{"type":"text","title":"reject"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodPost, submit, nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "title rejected")
}

func TestSubmit_NoEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	v := createSession(t, s, "", "")
	photo := upload(t, s, "portada.png", "", pngBytes(t, 16, 9))
	attachPhoto(t, s, v.ID, photo.ID, 1280)

	rec := do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/submit", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ── Assets ──

func TestAssets(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	assert.True(t, s.chain.Resolve(ctx, overlay.LogoCircle).Placeholder)

	logo := upload(t, s, "marca.png", "logo-circle", pngBytes(t, 8, 8))
	assert.Equal(t, "image/png", logo.Mime)
	assert.Equal(t, "/api/assets/"+logo.ID, logo.URL)

	res := s.chain.Resolve(ctx, overlay.LogoCircle)
	assert.False(t, res.Placeholder)
	assert.Equal(t, "memory", res.Source)
	assert.Equal(t, "logo-circle.png", res.Name)

	rec := do(t, s, http.MethodGet, "/api/assets", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]assetInfo](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "marca.png", list[0].Name)

	rec = do(t, s, http.MethodGet, logo.URL, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.DecodeConfig(rec.Body)
	assert.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodDelete, logo.URL, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, logo.URL, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, logo.URL, nil, "").Code)
	assert.True(t, s.chain.Resolve(ctx, overlay.LogoCircle).Placeholder)
}

func TestAssets_RoleAliasFollowsNewestUpload(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	width := func() int {
		t.Helper()
		res := s.chain.Resolve(ctx, overlay.LogoCircle)
		require.False(t, res.Placeholder)
		return res.Image.Bounds().Dx()
	}
	remove := func(a assetInfo) {
		t.Helper()
		require.Equal(t, http.StatusOK, do(t, s, http.MethodDelete, a.URL, nil, "").Code)
	}

	older := upload(t, s, "old.png", "logo-circle", pngBytes(t, 8, 8))
	newer := upload(t, s, "new.png", "logo-circle", pngBytes(t, 10, 10))
	newest := upload(t, s, "newest.png", "logo-circle", pngBytes(t, 12, 12))
	assert.Equal(t, 12, width())

	// Deleting an upload that no longer owns the alias leaves it alone.
	remove(older)
	assert.Equal(t, 12, width())

	// Deleting the owner hands the alias back to the newest remaining upload.
	remove(newest)
	assert.Equal(t, 10, width())

	remove(newer)
	assert.True(t, s.chain.Resolve(ctx, overlay.LogoCircle).Placeholder)
}

func TestUpload_Rejects(t *testing.T) {
	s := newTestServer(t, nil)

	tests := map[string]struct {
		name, role string
		data       []byte
		want       int
	}{
		"not an image": {name: "notes.txt", data: []byte("hello"), want: http.StatusUnprocessableEntity},
		"unknown role": {name: "a.png", role: "banner", data: pngBytes(t, 2, 2), want: http.StatusBadRequest},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			fw, err := mw.CreateFormFile("file", tc.name)
			require.NoError(t, err)
			_, _ = fw.Write(tc.data)
			if tc.role != "" {
				require.NoError(t, mw.WriteField("role", tc.role))
			}
			require.NoError(t, mw.Close())

			rec := do(t, s, http.MethodPost, "/api/upload/image", &body, mw.FormDataContentType())
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	rec := do(t, s, http.MethodPost, "/api/upload/image", strings.NewReader(""), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ── Catalogues and static ──

func TestCatalogues(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/themes", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	themes := decode[[]overlay.Theme](t, rec)
	assert.NotEmpty(t, themes)

	rec = do(t, s, http.MethodGet, "/api/templates", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, overlay.Templates, decode[[]overlay.Template](t, rec))

	rec = do(t, s, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CoverStencil")
}

// The editor page keeps the session viewport equal to its 16:9 stage, so a
// photo of another aspect is followed by a resize, and pointer coordinates
// taken from the returned geometry hit what the stage shows.
func TestEditorPageFlow(t *testing.T) {
	s := newTestServer(t, nil)
	v := createSession(t, s, "", `{"width":640,"height":360}`)
	actions := "/api/sessions/" + v.ID + "/actions"
	act := func(body string) actionResult {
		t.Helper()
		rec := do(t, s, http.MethodPost, actions, strings.NewReader(body), "application/json")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[actionResult](t, rec)
	}

	photo := upload(t, s, "retrato.png", "photo", pngBytes(t, 80, 100))
	assert.Equal(t, overlay.Viewport{Width: 640, Height: 800}, attachPhoto(t, s, v.ID, photo.ID, 640).Viewport)

	res := act(`{"type":"resize","width":640,"height":360}`)
	band := res.Overlay.Band
	assert.InDelta(t, 640, band.Width, 1e-9)

	x, y := band.X+band.Width/2, band.Y+band.Height/2
	down := act(fmt.Sprintf(`{"type":"pointerdown","x":%v,"y":%v}`, x, y))
	require.True(t, down.Handled)
	moved := act(fmt.Sprintf(`{"type":"pointermove","x":%v,"y":%v}`, x, y-20))
	assert.InDelta(t, band.Y-20, moved.Overlay.Band.Y, 1e-6)
	assert.True(t, act(`{"type":"pointerup"}`).Handled)

	rec := do(t, s, http.MethodGet, "/api/sessions/"+v.ID+"/payload?w=640&h=360", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[overlay.Payload](t, rec)
	assert.InDelta(t, overlay.PxToPct(moved.Overlay.Band.Y, 337), p.Layout.BlockTopPct, 0.01)

	rec = do(t, s, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "queue.then(")
	assert.Contains(t, page, "e.preventDefault();")
	assert.Contains(t, page, "type: 'resize'")
	assert.Contains(t, page, "/submit?w=")
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s, err := New(testConfig(), Deps{Logger: zap.New(core)})
	require.NoError(t, err)

	do(t, s, http.MethodGet, "/api/sessions/unknown", nil, "")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/sessions/unknown", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t, nil)
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
}
