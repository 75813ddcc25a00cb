// Package generator writes rendered cover images to disk or to a stream.
//
// Every output follows one pipeline: resolve an image.Image first (a rendered
// preview, or a solid stand-in when there is none), then encode it as PNG or
// JPEG depending on the requested extension.
package generator

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultJPEGQuality is used when Config.Quality is zero.
const DefaultJPEGQuality = 92

// Config holds parameters for image output.
type Config struct {
	Width   int         // Pixel width of the stand-in image (default: 1280)
	Height  int         // Pixel height of the stand-in image (default: 720)
	Color   string      // Stand-in color, "#rrggbb", "#rrggbbaa" or "random"
	Quality int         // JPEG quality 1-100 (default: 92)
	Image   image.Image // Pre-rendered image; overrides Width/Height/Color
}

// Generate creates an output file. The format is inferred from the extension:
//   - ".png"          → PNG
//   - ".jpg", ".jpeg" → JPEG
//
// If cfg.Image is nil, a solid-color image is created from cfg.Color/Width/Height.
func Generate(output string, cfg Config) error {
	ext := strings.ToLower(filepath.Ext(output))
	if !Supported(ext) {
		return fmt.Errorf("unsupported format %q: use .png or .jpg", ext)
	}
	img, err := resolveImage(cfg)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := encode(f, ext, img, cfg.Quality); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", output, err)
	}
	return nil
}

// GenerateToWriter writes the image to w. The format is given by ext (".png",
// ".jpg" or ".jpeg"). Used for in-memory output such as HTTP responses and WASM.
func GenerateToWriter(w io.Writer, ext string, cfg Config) error {
	ext = strings.ToLower(ext)
	if !Supported(ext) {
		return fmt.Errorf("unsupported format %q: use .png or .jpg", ext)
	}
	img, err := resolveImage(cfg)
	if err != nil {
		return err
	}
	return encode(w, ext, img, cfg.Quality)
}

// Supported reports whether ext names an output format.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// resolveImage returns the source image from config, creating a solid-color
// image if none is provided.
func resolveImage(cfg Config) (image.Image, error) {
	if cfg.Image != nil {
		return cfg.Image, nil
	}

	w := cfg.Width
	if w <= 0 {
		w = 1280
	}
	h := cfg.Height
	if h <= 0 {
		h = 720
	}

	c, err := ParseColor(cfg.Color)
	if err != nil {
		return nil, err
	}
	return NewSolidImage(w, h, c), nil
}
