// chain.go — Logo resolution across an ordered list of sources.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/xob0t/CoverStencil/pkg/overlay"
)

// DefaultCandidates lists the file names tried for each logo kind, in order.
var DefaultCandidates = map[overlay.LogoKind][]string{
	overlay.LogoCircle:     {"logo-circle.png", "logo_circle.png", "brand/circle.png"},
	overlay.LogoHorizontal: {"logo-horizontal.png", "logo_horizontal.png", "brand/horizontal.png"},
}

// KindOpener is implemented by sources that know their logo files directly,
// such as brand kits. The chain asks them before trying candidate names.
type KindOpener interface {
	OpenKind(ctx context.Context, kind overlay.LogoKind) (rc io.ReadCloser, name string, err error)
}

// Resolution is the outcome of a logo lookup.
type Resolution struct {
	Image       image.Image
	Source      string // source that served the image
	Name        string // asset name within the source
	Placeholder bool   // true when every candidate failed
}

// Chain resolves logos by trying every candidate against every source in
// order. The first decodable image wins. Failures are logged, never returned:
// an unresolved logo renders as a placeholder.
type Chain struct {
	Sources    []Source
	Candidates map[overlay.LogoKind][]string

	logger *zap.Logger
	mu     sync.Mutex
	cache  map[overlay.LogoKind]Resolution
}

// NewChain creates a chain over sources using DefaultCandidates.
func NewChain(logger *zap.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		Sources:    sources,
		Candidates: DefaultCandidates,
		logger:     logger.Named("assets"),
		cache:      make(map[overlay.LogoKind]Resolution),
	}
}

// Prepend puts s in front of the existing sources and drops cached results.
func (c *Chain) Prepend(s Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sources = append([]Source{s}, c.Sources...)
	clear(c.cache)
}

// Invalidate drops cached results, e.g. after an upload.
func (c *Chain) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.cache)
}

// Resolve finds the image for kind. Successful lookups are cached until
// Invalidate; placeholders are retried on the next call.
func (c *Chain) Resolve(ctx context.Context, kind overlay.LogoKind) Resolution {
	if kind == overlay.LogoNone {
		return Resolution{Placeholder: true}
	}

	c.mu.Lock()
	if r, ok := c.cache[kind]; ok {
		c.mu.Unlock()
		return r
	}
	sources := append([]Source(nil), c.Sources...)
	c.mu.Unlock()

	for _, src := range sources {
		if ko, ok := src.(KindOpener); ok {
			rc, name, err := ko.OpenKind(ctx, kind)
			if r, ok := c.decode(src, name, rc, err); ok {
				return c.store(kind, r)
			}
		}
		for _, name := range c.Candidates[kind] {
			if ctx.Err() != nil {
				return Resolution{Placeholder: true}
			}
			rc, err := src.Open(ctx, name)
			if r, ok := c.decode(src, name, rc, err); ok {
				return c.store(kind, r)
			}
		}
	}

	c.logger.Debug("logo unresolved, using placeholder", zap.String("kind", string(kind)), zap.Int("sources", len(sources)))
	return Resolution{Placeholder: true}
}

// Logo adapts Resolve to the preview renderer.
func (c *Chain) Logo(ctx context.Context, kind overlay.LogoKind) (image.Image, bool) {
	r := c.Resolve(ctx, kind)
	return r.Image, !r.Placeholder
}

func (c *Chain) decode(src Source, name string, rc io.ReadCloser, err error) (Resolution, bool) {
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Debug("logo source failed", zap.String("source", src.Name()), zap.String("name", name), zap.Error(err))
		}
		return Resolution{}, false
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		c.logger.Debug("logo not decodable", zap.String("source", src.Name()), zap.String("name", name), zap.Error(err))
		return Resolution{}, false
	}
	return Resolution{Image: img, Source: src.Name(), Name: name}, true
}

func (c *Chain) store(kind overlay.LogoKind, r Resolution) Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[kind] = r
	c.logger.Debug("logo resolved", zap.String("kind", string(kind)), zap.String("source", r.Source), zap.String("name", r.Name))
	return r
}

// DecodeImage decodes a photo or logo, honouring EXIF orientation.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
