// preview.go — Render preview templates to image files.
package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xob0t/CoverStencil/pkg/assets"
	"github.com/xob0t/CoverStencil/pkg/generator"
	"github.com/xob0t/CoverStencil/pkg/overlay"
	"github.com/xob0t/CoverStencil/pkg/preview"
)

type previewOptions struct {
	query     string
	payload   string
	photo     string
	color     string
	outDir    string
	format    string
	quality   int
	templates []string
}

func newPreviewCmd(a *app) *cobra.Command {
	var opts previewOptions
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the preview templates for a layout",
		Example: `  coverstencil preview --query @layout.query --photo portada.jpg -o out/
  coverstencil preview --payload payload.json --template story --format jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPreview(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.query, "query", "q", "", "editor query string, or @file with one key=value per line")
	f.StringVar(&opts.payload, "payload", "", "payload JSON to render instead of a query")
	f.StringVar(&opts.photo, "photo", "", "base photo (PNG or JPEG)")
	f.StringVar(&opts.color, "color", "", "stand-in photo color when no photo is given (hex or 'random')")
	f.StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	f.StringVar(&opts.format, "format", "png", "output format: png or jpg")
	f.IntVar(&opts.quality, "quality", generator.DefaultJPEGQuality, "JPEG quality 1-100")
	f.StringSliceVarP(&opts.templates, "template", "t", nil, "templates to render (default: the preview templates)")
	return cmd
}

func (a *app) runPreview(cmd *cobra.Command, opts previewOptions) error {
	ext := "." + strings.ToLower(strings.TrimPrefix(opts.format, "."))
	if !generator.Supported(ext) {
		return fmt.Errorf("unsupported format %q: use png or jpg", opts.format)
	}

	templates := overlay.PreviewTemplates()
	if len(opts.templates) > 0 {
		templates = templates[:0:0]
		for _, name := range opts.templates {
			tpl, ok := overlay.LookupTemplate(name)
			if !ok {
				return fmt.Errorf("unknown template %q", name)
			}
			templates = append(templates, tpl)
		}
	}

	state, warnings, err := loadState(opts.query, opts.payload, a.cfg.Editor)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
	// Render what `payload` would submit at the reference size.
	state = overlay.Fit(state, overlay.Viewport{Width: overlay.ReferenceWidth, Height: overlay.ReferenceHeight})

	photo, err := loadPhoto(opts.photo, opts.color)
	if err != nil {
		return err
	}

	fonts, err := a.fonts()
	if err != nil {
		return err
	}
	renderer := preview.NewRenderer(fonts, a.chain(), logger())
	results, err := renderer.RenderTemplates(cmd.Context(), state, photo, templates)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, r := range results {
		path := filepath.Join(opts.outDir, r.Template.Name+ext)
		if err := generator.Generate(path, generator.Config{Image: r.Image, Quality: opts.quality}); err != nil {
			return err
		}
		logger().Debug("preview written", zap.String("template", r.Template.Name), zap.String("path", path))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d)\n", path, r.Template.Width, r.Template.Height)
	}
	return nil
}

// loadPhoto decodes path, or makes a solid 1280×720 stand-in from color.
// Both empty means no photo.
func loadPhoto(path, color string) (image.Image, error) {
	if path == "" {
		if color == "" {
			return nil, nil
		}
		c, err := generator.ParseColor(color)
		if err != nil {
			return nil, err
		}
		return generator.NewSolidImage(overlay.ReferenceWidth, overlay.ReferenceHeight, c), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()
	return assets.DecodeImage(f)
}
