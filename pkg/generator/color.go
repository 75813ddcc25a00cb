// color.go — Hex color parsing and solid image creation.
package generator

import (
	"crypto/rand"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"
)

// ParseColor parses "#rrggbb", "#rrggbbaa", "random", or "".
// Empty string is treated as "random".
func ParseColor(s string) (color.RGBA, error) {
	if s == "" || s == "random" {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return color.RGBA{}, fmt.Errorf("random color: %w", err)
		}
		return color.RGBA{R: buf[0], G: buf[1], B: buf[2], A: 255}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected 6 or 8 hex digits", s)
	}

	var ch [4]uint8
	ch[3] = 255
	names := [4]string{"red", "green", "blue", "alpha"}
	for i := 0; i*2 < len(hex); i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid %s channel in %q: %w", names[i], s, err)
		}
		ch[i] = uint8(v)
	}

	// color.RGBA is alpha-premultiplied.
	a := uint32(ch[3])
	return color.RGBA{
		R: uint8(uint32(ch[0]) * a / 255),
		G: uint8(uint32(ch[1]) * a / 255),
		B: uint8(uint32(ch[2]) * a / 255),
		A: ch[3],
	}, nil
}

// ParseHexRGBA converts a hex string to color.RGBA.
// Returns white on any parse error (safe default for rendering).
func ParseHexRGBA(hex string) color.RGBA {
	if hex == "" || hex == "random" {
		return color.RGBA{255, 255, 255, 255}
	}
	c, err := ParseColor(hex)
	if err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return c
}

// Lerp blends a toward b by t in [0,1].
func Lerp(a, b color.RGBA, t float64) color.RGBA {
	t = min(max(t, 0), 1)
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// NewSolidImage creates a uniform solid-color image using draw.Draw (O(1) fill).
func NewSolidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}
