// fonts.go - Font management with custom TTF support and embedded fallback fonts.
// Uses golang.org/x/image/font for OpenType rendering. Defaults to Go Regular
// (and Go Bold for titles) when no custom font is configured or it fails to load.
package preview

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontManager holds the parsed regular and bold fonts. Parsed fonts are
// immutable and may be shared; faces are not, so callers create their own.
type FontManager struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// NewFontManager creates a font manager. If customPath is empty or invalid,
// the embedded Go fonts are used. A custom font is used for both weights.
func NewFontManager(customPath string, logger *zap.Logger) (*FontManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var custom []byte
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			logger.Warn("could not load custom font, using default", zap.String("path", customPath), zap.Error(err))
		} else {
			custom = data
		}
	}

	if custom != nil {
		parsed, err := opentype.Parse(custom)
		if err == nil {
			return &FontManager{regular: parsed, bold: parsed}, nil
		}
		logger.Warn("could not parse custom font, using default", zap.String("path", customPath), zap.Error(err))
	}

	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &FontManager{regular: regular, bold: bold}, nil
}

// Face returns a new font.Face at size pixels. The caller must Close it.
func (fm *FontManager) Face(size float64, bold bool) (font.Face, error) {
	f := fm.regular
	if bold {
		f = fm.bold
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    max(size, 1),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
