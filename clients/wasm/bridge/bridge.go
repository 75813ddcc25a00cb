// Package bridge is the string-in/string-out surface the browser build
// exposes to JavaScript. It keeps one editor per page.
package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xob0t/CoverStencil/pkg/assets"
	"github.com/xob0t/CoverStencil/pkg/generator"
	"github.com/xob0t/CoverStencil/pkg/overlay"
	"github.com/xob0t/CoverStencil/pkg/preview"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoEditor is returned by calls made before New.
var ErrNoEditor = errors.New("editor not created; call goEditorNew first")

// Bridge owns the page's editor and uploaded assets.
type Bridge struct {
	mu       sync.Mutex
	editor   *overlay.Editor
	photo    string
	memory   *assets.MemorySource
	chain    *assets.Chain
	renderer *preview.Renderer
	logger   *zap.Logger
}

// New creates a bridge with the embedded fonts.
func New(logger *zap.Logger) (*Bridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fonts, err := preview.NewFontManager("", logger)
	if err != nil {
		return nil, err
	}
	memory := assets.NewMemorySource()
	chain := assets.NewChain(logger, memory)
	return &Bridge{
		memory:   memory,
		chain:    chain,
		renderer: preview.NewRenderer(fonts, chain, logger),
		logger:   logger,
	}, nil
}

type editorView struct {
	State    overlay.LayoutState `json:"state"`
	Overlay  overlay.Overlay     `json:"overlay"`
	Handled  *bool               `json:"handled,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return string(data), nil
}

// NewEditor replaces the page editor with one built from a query string
// ("?theme=verde&logo=none" or without the leading '?') at width×height.
func (b *Bridge) NewEditor(query string, width, height float64) (string, error) {
	q, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return "", fmt.Errorf("parse query: %w", err)
	}
	state, warnings := overlay.FromQuery(q)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.editor = overlay.NewEditor(state,
		overlay.WithViewport(width, height),
		overlay.WithLogger(b.logger.Named("editor")),
	)
	b.photo = ""
	return encode(editorView{State: b.editor.State(), Overlay: b.editor.Overlay(), Warnings: warnings})
}

// Dispatch applies one JSON action.
func (b *Bridge) Dispatch(actionJSON string) (string, error) {
	action, err := overlay.DecodeAction([]byte(actionJSON))
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.editor == nil {
		return "", ErrNoEditor
	}
	handled := b.editor.Dispatch(action)
	return encode(editorView{State: b.editor.State(), Overlay: b.editor.Overlay(), Handled: &handled})
}

// Payload serializes against width×height, or the live viewport when either
// is zero.
func (b *Bridge) Payload(width, height float64) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.editor == nil {
		return "", ErrNoEditor
	}
	if width == 0 || height == 0 {
		return encode(b.editor.Payload())
	}
	return encode(overlay.Serialize(b.editor.State(), overlay.Viewport{Width: width, Height: height}))
}

// Overlay returns the live geometry.
func (b *Bridge) Overlay() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.editor == nil {
		return "", ErrNoEditor
	}
	return encode(b.editor.Overlay())
}

// RegisterAsset stores base64 data under name. Names from the logo candidate
// lists ("logo-circle.png", ...) become logos; "photo" becomes the base photo
// and re-measures the preview box at boxWidth.
func (b *Bridge) RegisterAsset(name, b64 string, boxWidth float64) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("invalid base64: %w", err)
	}
	img, err := assets.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return err
	}
	b.memory.Put(name, data)
	b.chain.Invalidate()

	if name != "photo" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.photo = name
	if b.editor != nil {
		bounds := img.Bounds()
		b.editor.Dispatch(overlay.ImageChanged{
			BoxWidth:    boxWidth,
			ImageWidth:  float64(bounds.Dx()),
			ImageHeight: float64(bounds.Dy()),
		})
	}
	return nil
}

// RemoveAsset drops name.
func (b *Bridge) RemoveAsset(name string) {
	b.memory.Delete(name)
	b.chain.Invalidate()
	b.mu.Lock()
	if b.photo == name {
		b.photo = ""
	}
	b.mu.Unlock()
}

// RenderPreview draws the named template and returns a base64 PNG.
func (b *Bridge) RenderPreview(ctx context.Context, template string) (string, error) {
	tpl, ok := overlay.LookupTemplate(template)
	if !ok {
		return "", fmt.Errorf("unknown template %q", template)
	}

	b.mu.Lock()
	if b.editor == nil {
		b.mu.Unlock()
		return "", ErrNoEditor
	}
	state := b.editor.Fitted()
	photoName := b.photo
	b.mu.Unlock()

	var photo image.Image
	if photoName != "" {
		rc, err := b.memory.Open(ctx, photoName)
		if err != nil {
			return "", err
		}
		photo, err = assets.DecodeImage(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
	}
	img, err := b.renderer.Render(ctx, state, photo, tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, ".png", generator.Config{Image: img}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
