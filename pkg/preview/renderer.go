// renderer.go - Raster preview of a layout on each output template.
// Uses a layered approach: photo -> band -> header/footer -> texts -> logo.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xob0t/CoverStencil/pkg/generator"
	"github.com/xob0t/CoverStencil/pkg/overlay"
)

// LogoSource supplies logo artwork. ok is false when the logo is unresolved
// and a placeholder should be drawn instead.
type LogoSource interface {
	Logo(ctx context.Context, kind overlay.LogoKind) (img image.Image, ok bool)
}

// Renderer draws layout previews. It is safe for concurrent use.
type Renderer struct {
	fonts  *FontManager
	logos  LogoSource
	logger *zap.Logger
}

// NewRenderer creates a renderer. logos may be nil, in which case every logo
// is drawn as a placeholder.
func NewRenderer(fonts *FontManager, logos LogoSource, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{fonts: fonts, logos: logos, logger: logger.Named("preview")}
}

// Result is one rendered template.
type Result struct {
	Template overlay.Template
	Image    *image.RGBA
}

// RenderTemplates renders state on every template concurrently. Results keep
// the order of templates. state is a value, so workers share nothing mutable.
func (r *Renderer) RenderTemplates(ctx context.Context, state overlay.LayoutState, photo image.Image, templates []overlay.Template) ([]Result, error) {
	out := make([]Result, len(templates))
	g, gctx := errgroup.WithContext(ctx)
	for i, tpl := range templates {
		g.Go(func() error {
			img, err := r.Render(gctx, state, photo, tpl)
			if err != nil {
				return fmt.Errorf("render %s: %w", tpl.Name, err)
			}
			out[i] = Result{Template: tpl, Image: img}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Render draws state over photo at the template's pixel size. A nil photo is
// replaced by a solid image in the theme's footer color.
func (r *Renderer) Render(ctx context.Context, state overlay.LayoutState, photo image.Image, tpl overlay.Template) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tpl.Width <= 0 || tpl.Height <= 0 {
		return nil, fmt.Errorf("template %q has no size", tpl.Name)
	}

	o := overlay.RenderOverlay(state, float64(tpl.Width), float64(tpl.Height), state.Header.Enabled)
	dst := image.NewRGBA(image.Rect(0, 0, tpl.Width, tpl.Height))
	th := o.Theme

	r.drawPhoto(dst, photo, th)
	drawGradient(dst, pxRect(o.Band), generator.ParseHexRGBA(th.GradientFrom), generator.ParseHexRGBA(th.GradientTo), o.Opacity)

	if o.Header.Height > 0 {
		fill(dst, pxRect(o.Header), generator.ParseHexRGBA(th.HeaderBg))
		size := o.Header.Height * 0.5
		pad := 24 * o.Scale
		if err := r.text(dst, state.Header.Date, size, false, th.Title, o.Header.X+pad, o.Header, alignLeft); err != nil {
			return nil, err
		}
		if err := r.text(dst, state.Header.Label, size, true, th.Title, o.Header.Right()-pad, o.Header, alignRight); err != nil {
			return nil, err
		}
	}

	if o.Footer.Height > 0 {
		fill(dst, pxRect(o.Footer), generator.ParseHexRGBA(th.FooterBg))
		accent := o.Footer
		accent.Width = math.Max(4*o.Scale, 1)
		fill(dst, pxRect(accent), generator.ParseHexRGBA(th.AlertBg))
		if err := r.text(dst, state.Texts.Handle, o.Footer.Height*0.45, true, th.Handle, o.Footer.X+24*o.Scale, o.Footer, alignLeft); err != nil {
			return nil, err
		}
	}

	band := dst.SubImage(pxRect(o.Band)).(*image.RGBA)
	if o.Alert.Visible {
		if err := r.alert(band, o.Alert, th); err != nil {
			return nil, err
		}
	}
	for _, tb := range []struct {
		box   overlay.TextBox
		bold  bool
		color string
	}{
		{o.Title, true, th.Title},
		{o.Subtitle, false, th.Subtitle},
	} {
		if !tb.box.Visible {
			continue
		}
		if err := r.block(band, tb.box, tb.bold, tb.color, o.Band.Right()-tb.box.Rect.X-24*o.Scale); err != nil {
			return nil, err
		}
	}

	if o.Logo.Kind != overlay.LogoNone {
		r.drawLogo(ctx, dst, o.Logo, th)
	}
	return dst, nil
}

// ── Layers ──

// drawPhoto cover-crops photo to the canvas.
func (r *Renderer) drawPhoto(dst *image.RGBA, photo image.Image, th overlay.Theme) {
	b := dst.Bounds()
	if photo == nil || photo.Bounds().Empty() {
		draw.Draw(dst, b, generator.NewSolidImage(b.Dx(), b.Dy(), generator.ParseHexRGBA(th.FooterBg)), image.Point{}, draw.Src)
		return
	}
	cropped := imaging.Fill(photo, b.Dx(), b.Dy(), imaging.Center, imaging.Lanczos)
	draw.Draw(dst, b, cropped, image.Point{}, draw.Src)
}

// drawGradient fills rect top to bottom from one color to another at opacity.
func drawGradient(dst *image.RGBA, rect image.Rectangle, from, to color.RGBA, opacity float64) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() || opacity <= 0 {
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(opacity * 255))})
	span := max(rect.Dy()-1, 1)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		c := generator.Lerp(from, to, float64(y-rect.Min.Y)/float64(span))
		row := image.Rect(rect.Min.X, y, rect.Max.X, y+1)
		draw.DrawMask(dst, row, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
	}
}

// alert draws the upper-cased alert tag on its colored pill.
func (r *Renderer) alert(dst *image.RGBA, tb overlay.TextBox, th overlay.Theme) error {
	text := cases.Upper(language.Spanish).String(tb.Text)
	face, err := r.fonts.Face(tb.FontPx, true)
	if err != nil {
		return err
	}
	defer face.Close()

	pad := tb.FontPx * 0.35
	w := float64(font.MeasureString(face, text).Ceil())
	pill := image.Rect(
		int(math.Round(tb.Rect.X)), int(math.Round(tb.Rect.Y)),
		int(math.Round(tb.Rect.X+w+2*pad)), int(math.Round(tb.Rect.Y+tb.Rect.Height)),
	)
	fill(dst, pill, generator.ParseHexRGBA(th.AlertBg))
	drawString(dst, face, text, tb.Rect.X+pad, baseline(face, tb.Rect), color.White)
	return nil
}

// block draws a wrapped text element clipped to dst.
func (r *Renderer) block(dst *image.RGBA, tb overlay.TextBox, bold bool, hex string, maxWidth float64) error {
	face, err := r.fonts.Face(tb.FontPx, bold)
	if err != nil {
		return err
	}
	defer face.Close()

	col := generator.ParseHexRGBA(hex)
	lineH := tb.Rect.Height
	line := tb.Rect
	for _, l := range wrapText(tb.Text, int(maxWidth), face) {
		if line.Y > float64(dst.Bounds().Max.Y) {
			break
		}
		drawString(dst, face, l, line.X, baseline(face, line), col)
		line.Y += lineH
	}
	return nil
}

type align int

const (
	alignLeft align = iota
	alignRight
)

// text draws a single line vertically centered in box.
func (r *Renderer) text(dst *image.RGBA, s string, size float64, bold bool, hex string, x float64, box overlay.Rect, a align) error {
	if strings.TrimSpace(s) == "" || size < 1 {
		return nil
	}
	face, err := r.fonts.Face(size, bold)
	if err != nil {
		return err
	}
	defer face.Close()

	if a == alignRight {
		x -= float64(font.MeasureString(face, s).Ceil())
	}
	clip := dst.SubImage(pxRect(box)).(*image.RGBA)
	drawString(clip, face, s, x, baseline(face, box), generator.ParseHexRGBA(hex))
	return nil
}

// drawLogo scales the resolved logo into its box, or outlines a placeholder.
func (r *Renderer) drawLogo(ctx context.Context, dst *image.RGBA, lb overlay.LogoBox, th overlay.Theme) {
	rect := pxRect(lb.Rect)
	if rect.Empty() {
		return
	}

	var img image.Image
	ok := false
	if r.logos != nil {
		img, ok = r.logos.Logo(ctx, lb.Kind)
	}
	if !ok || img == nil || img.Bounds().Empty() {
		r.logger.Debug("drawing logo placeholder", zap.String("kind", string(lb.Kind)))
		dashedRect(dst, rect, generator.ParseHexRGBA(th.Handle), max(rect.Dx()/24, 1))
		return
	}

	// Fit the artwork inside the box, keeping its aspect ratio.
	ib := img.Bounds()
	s := math.Min(float64(rect.Dx())/float64(ib.Dx()), float64(rect.Dy())/float64(ib.Dy()))
	w := max(int(math.Round(float64(ib.Dx())*s)), 1)
	h := max(int(math.Round(float64(ib.Dy())*s)), 1)
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, ib, xdraw.Over, nil)

	at := image.Pt(rect.Min.X+(rect.Dx()-w)/2, rect.Min.Y+(rect.Dy()-h)/2)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(lb.Opacity * 255))})
	draw.DrawMask(dst, image.Rectangle{Min: at, Max: at.Add(scaled.Bounds().Size())}, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}

// ── Primitives ──

// wrapText breaks text into lines that each fit within maxWidth pixels,
// using the metrics of the provided font face.
func wrapText(text string, maxWidth int, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		test := current + " " + word
		if font.MeasureString(face, test).Ceil() > maxWidth {
			lines = append(lines, current)
			current = word
		} else {
			current = test
		}
	}
	return append(lines, current)
}

// drawString draws text with its baseline at (x, y).
func drawString(dst draw.Image, face font.Face, text string, x, y float64, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
	}
	d.DrawString(text)
}

// baseline centers the face's ascent+descent in box.
func baseline(face font.Face, box overlay.Rect) float64 {
	m := face.Metrics()
	asc := float64(m.Ascent) / 64
	desc := float64(m.Descent) / 64
	return box.Y + (box.Height-(asc+desc))/2 + asc
}

func fill(dst *image.RGBA, rect image.Rectangle, c color.RGBA) {
	draw.Draw(dst, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// dashedRect outlines rect with dashes of length 3*stroke.
func dashedRect(dst *image.RGBA, rect image.Rectangle, c color.RGBA, stroke int) {
	dash := 3 * stroke
	for x := rect.Min.X; x < rect.Max.X; x += 2 * dash {
		end := min(x+dash, rect.Max.X)
		fill(dst, image.Rect(x, rect.Min.Y, end, rect.Min.Y+stroke), c)
		fill(dst, image.Rect(x, rect.Max.Y-stroke, end, rect.Max.Y), c)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y += 2 * dash {
		end := min(y+dash, rect.Max.Y)
		fill(dst, image.Rect(rect.Min.X, y, rect.Min.X+stroke, end), c)
		fill(dst, image.Rect(rect.Max.X-stroke, y, rect.Max.X, end), c)
	}
}

// pxRect rounds a float rectangle to pixel edges.
func pxRect(r overlay.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.Right())), int(math.Round(r.Bottom())),
	)
}
