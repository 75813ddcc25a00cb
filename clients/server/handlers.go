// handlers.go — HTTP handlers for sessions, assets and catalogues.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xob0t/CoverStencil/pkg/assets"
	"github.com/xob0t/CoverStencil/pkg/generator"
	"github.com/xob0t/CoverStencil/pkg/overlay"
	"github.com/xob0t/CoverStencil/pkg/renderclient"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ── Responses ──

type sessionView struct {
	ID       string              `json:"id"`
	State    overlay.LayoutState `json:"state"`
	Overlay  overlay.Overlay     `json:"overlay"`
	Drag     overlay.DragState   `json:"drag"`
	Viewport overlay.Viewport    `json:"viewport"`
	PhotoID  string              `json:"photoId,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

type actionResult struct {
	Handled bool                `json:"handled"`
	State   overlay.LayoutState `json:"state"`
	Overlay overlay.Overlay     `json:"overlay"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// view snapshots s. Callers hold s.mu.
func view(s *session) sessionView {
	return sessionView{
		ID:       s.id,
		State:    s.editor.State(),
		Overlay:  s.editor.Overlay(),
		Drag:     s.editor.Drag(),
		Viewport: s.editor.Viewport(),
		PhotoID:  s.photoID,
	}
}

// session resolves the {id} URL parameter, writing 404 when unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

// ── Catalogues ──

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, overlay.Themes())
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, overlay.Templates)
}

// ── Sessions ──

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, warnings := overlay.FromQuery(q)
	if !q.Has("theme") {
		state.Theme = s.cfg.Editor.DefaultTheme
	}
	if !q.Has("header") {
		state.Header.Enabled = s.cfg.Editor.DefaultHeader
	}

	size := overlay.Viewport{Width: s.cfg.Editor.ViewportWidth, Height: s.cfg.Editor.ViewportHeight}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&size); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
			return
		}
	}

	id := newID()
	editor := overlay.NewEditor(state,
		overlay.WithViewport(size.Width, size.Height),
		overlay.WithLogger(s.logger.Named("editor").With(zap.String("session", id))),
	)
	sess := s.sessions.create(id, editor)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.logger.Info("session created", zap.String("session", sess.id), zap.Int("warnings", len(warnings)))
	v := view(sess)
	v.Warnings = warnings
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, view(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	action, err := overlay.DecodeAction(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	handled := sess.editor.Dispatch(action)
	writeJSON(w, http.StatusOK, actionResult{
		Handled: handled,
		State:   sess.editor.State(),
		Overlay: sess.editor.Overlay(),
	})
}

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	state := sess.editor.State()
	live := sess.editor.Viewport()
	sess.mu.Unlock()

	vp, ok, err := measuredViewport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		vp = live
	}
	writeJSON(w, http.StatusOK, overlay.Serialize(state, vp))
}

// measuredViewport reads the preview box size the client measured, passed as
// the w and h query parameters. ok is false when neither is present.
func measuredViewport(r *http.Request) (overlay.Viewport, bool, error) {
	q := r.URL.Query()
	if !q.Has("w") && !q.Has("h") {
		return overlay.Viewport{}, false, nil
	}
	width, errW := strconv.ParseFloat(q.Get("w"), 64)
	height, errH := strconv.ParseFloat(q.Get("h"), 64)
	if errW != nil || errH != nil {
		return overlay.Viewport{}, false, errors.New("w and h must both be numbers")
	}
	return overlay.Viewport{Width: width, Height: height}, true, nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	tpl, ok := overlay.LookupTemplate(chi.URLParam(r, "template"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown template")
		return
	}
	ext := ".png"
	if f := r.URL.Query().Get("format"); f != "" {
		ext = "." + f
	}
	if !generator.Supported(ext) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", ext))
		return
	}

	sess.mu.Lock()
	state := sess.editor.Fitted()
	photoID := sess.photoID
	sess.mu.Unlock()

	photo, err := s.loadPhoto(r, photoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	img, err := s.renderer.Render(r.Context(), state, photo, tpl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, ext, generator.Config{Image: img}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", mime.TypeByExtension(ext))
	_, _ = w.Write(buf.Bytes())
}

type photoRequest struct {
	AssetID  string  `json:"assetId"`
	BoxWidth float64 `json:"boxWidth"`
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req photoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if _, ok := s.assets.get(req.AssetID); !ok {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	photo, err := s.loadPhoto(r, req.AssetID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.photoID = req.AssetID
	b := photo.Bounds()
	sess.editor.Dispatch(overlay.ImageChanged{
		BoxWidth:    req.BoxWidth,
		ImageWidth:  float64(b.Dx()),
		ImageHeight: float64(b.Dy()),
	})
	writeJSON(w, http.StatusOK, view(sess))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	vp, measured, err := measuredViewport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The band clamps depend on the live box, so a size measured at submit
	// time is recorded before serializing.
	sess.mu.Lock()
	if measured {
		sess.editor.Dispatch(overlay.Resize{Width: vp.Width, Height: vp.Height})
	}
	state := sess.editor.State()
	payload := sess.editor.Payload()
	photoID := sess.photoID
	sess.mu.Unlock()

	if photoID == "" {
		writeError(w, http.StatusConflict, "attach a photo before submitting")
		return
	}
	info, _ := s.assets.get(photoID)
	rc, err := s.assets.open(r.Context(), photoID)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	defer rc.Close()

	result, err := s.render.Submit(r.Context(), renderclient.Submission{
		Photo:     rc,
		PhotoName: info.Name,
		Payload:   payload,
		Fields: map[string]string{
			"title":    state.Texts.Title,
			"subtitle": state.Texts.Subtitle,
		},
	})
	var statusErr *renderclient.StatusError
	switch {
	case err == nil:
		s.logger.Info("layout submitted", zap.String("session", sess.id), zap.Int("outputs", len(result.Outputs)))
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, renderclient.ErrNoEndpoint):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &statusErr):
		writeError(w, http.StatusBadGateway, statusErr.Error())
	default:
		s.logger.Warn("submit failed", zap.String("session", sess.id), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// ── Assets ──

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.Server.MaxUploadMB)<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := assets.DecodeImage(bytes.NewReader(data)); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	role := r.FormValue("role")
	if role != "" && role != "photo" {
		if _, ok := roleNames[role]; !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown role %q", role))
			return
		}
	}

	mimeType := mime.TypeByExtension(filepath.Ext(header.Filename))
	if mimeType == "" {
		mimeType = "image/png"
	}
	info := s.assets.add(header.Filename, mimeType, role, data)
	if _, ok := roleNames[role]; ok {
		s.chain.Invalidate()
	}
	s.logger.Debug("asset uploaded", zap.String("id", info.ID), zap.String("name", info.Name), zap.String("role", role))
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, ok := s.assets.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	rc, err := s.assets.open(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", info.Mime)
	_, _ = io.Copy(w, rc)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.assets.list())
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, ok := s.assets.get(id)
	if !ok || !s.assets.remove(id) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if _, ok := roleNames[info.Role]; ok {
		s.chain.Invalidate()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ── Helpers ──

// loadPhoto decodes the uploaded photo, or returns nil when id is empty.
func (s *Server) loadPhoto(r *http.Request, id string) (image.Image, error) {
	if id == "" {
		return nil, nil
	}
	rc, err := s.assets.open(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	defer rc.Close()
	return assets.DecodeImage(rc)
}
