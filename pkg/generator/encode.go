// encode.go — PNG and JPEG encoders.
package generator

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
)

// encode writes img to w in the format named by ext.
func encode(w io.Writer, ext string, img image.Image, quality int) error {
	switch ext {
	case ".png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode PNG: %w", err)
		}
	case ".jpg", ".jpeg":
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encode JPEG: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q", ext)
	}
	return nil
}
