// kit.go — Load .cskit (ZIP) brand kits and parse kit.json.
package assets

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xob0t/CoverStencil/pkg/generator"
	"github.com/xob0t/CoverStencil/pkg/overlay"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kit is a brand kit: extra themes, the two logo variants and an optional font.
type Kit struct {
	Meta   KitMeta         `json:"meta"`
	Themes []overlay.Theme `json:"themes"`
	Logos  KitLogos        `json:"logos"`
	Font   string          `json:"font"`

	// Dir is the directory the kit was extracted to.
	Dir string `json:"-"`
}

// KitMeta holds kit metadata.
type KitMeta struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// KitLogos are paths inside the kit.
type KitLogos struct {
	Circle     string `json:"circle"`
	Horizontal string `json:"horizontal"`
}

// LoadKit opens a .cskit ZIP, extracts it to a temp directory, parses
// kit.json and makes every asset path absolute. The returned cleanup function
// removes the temp directory.
func LoadKit(path string) (*Kit, func(), error) {
	noop := func() {}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	tmpDir, err := os.MkdirTemp("", "cskit-*")
	if err != nil {
		return nil, noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	if err := extractZip(&r.Reader, tmpDir); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("extract %s: %w", path, err)
	}

	kit, err := ReadKitDir(tmpDir)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return kit, cleanup, nil
}

// ReadKitDir parses dir/kit.json of an already extracted kit.
func ReadKitDir(dir string) (*Kit, error) {
	data, err := os.ReadFile(filepath.Join(dir, "kit.json"))
	if err != nil {
		return nil, fmt.Errorf("read kit.json: %w", err)
	}

	var kit Kit
	if err := json.Unmarshal(data, &kit); err != nil {
		return nil, fmt.Errorf("parse kit.json: %w", err)
	}
	kit.Dir = dir

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, filepath.FromSlash(p))
	}
	kit.Logos.Circle = resolve(kit.Logos.Circle)
	kit.Logos.Horizontal = resolve(kit.Logos.Horizontal)
	kit.Font = resolve(kit.Font)
	return &kit, nil
}

// Validate reports problems that do not prevent using the kit. The kit stays
// usable: bad themes are skipped by RegisterThemes and missing logos fall
// through to the next source.
func (k *Kit) Validate() []string {
	var warnings []string
	seen := make(map[string]struct{})
	for i, t := range k.Themes {
		if t.Name == "" {
			warnings = append(warnings, fmt.Sprintf("theme #%d has no name; skipped", i+1))
			continue
		}
		if _, dup := seen[strings.ToLower(t.Name)]; dup {
			warnings = append(warnings, fmt.Sprintf("theme %q is defined twice; last one wins", t.Name))
		}
		seen[strings.ToLower(t.Name)] = struct{}{}
		for field, c := range map[string]string{
			"gradientFrom": t.GradientFrom, "gradientTo": t.GradientTo,
			"title": t.Title, "subtitle": t.Subtitle, "handle": t.Handle,
			"alertBg": t.AlertBg, "headerBg": t.HeaderBg, "footerBg": t.FooterBg,
		} {
			if c == "" {
				continue
			}
			if _, err := generator.ParseColor(c); err != nil || c == "random" {
				warnings = append(warnings, fmt.Sprintf("theme %q: %s %q is not a hex color", t.Name, field, c))
			}
		}
	}
	for kind, p := range map[string]string{"circle": k.Logos.Circle, "horizontal": k.Logos.Horizontal, "font": k.Font} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s file %s is missing", kind, filepath.Base(p)))
		}
	}
	sort.Strings(warnings)
	return warnings
}

// RegisterThemes adds the kit's named themes to the overlay theme registry.
func (k *Kit) RegisterThemes() (int, error) {
	n := 0
	for _, t := range k.Themes {
		if t.Name == "" {
			continue
		}
		if err := overlay.RegisterTheme(t); err != nil {
			return n, fmt.Errorf("kit %s: %w", k.Meta.Name, err)
		}
		n++
	}
	return n, nil
}

// Source exposes the kit's logos to a Chain.
func (k *Kit) Source() KitSource { return KitSource{kit: k} }

// FormatKit returns a human-readable description of a kit.
func FormatKit(k *Kit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kit: %s", orDash(k.Meta.Name))
	if k.Meta.Version != "" {
		fmt.Fprintf(&b, " (v%s)", k.Meta.Version)
	}
	if k.Meta.Author != "" {
		fmt.Fprintf(&b, " by %s", k.Meta.Author)
	}
	b.WriteString("\n")
	if k.Meta.Description != "" {
		b.WriteString(k.Meta.Description + "\n")
	}
	fmt.Fprintf(&b, "\nLogos:\n  circle      %s\n  horizontal  %s\n", orDash(filepath.Base(k.Logos.Circle)), orDash(filepath.Base(k.Logos.Horizontal)))
	if k.Font != "" {
		fmt.Fprintf(&b, "Font: %s\n", filepath.Base(k.Font))
	}
	if len(k.Themes) > 0 {
		b.WriteString("\nThemes:\n")
		for _, t := range k.Themes {
			fmt.Fprintf(&b, "  %-10s band %s→%s  title %s\n", t.Name, orDash(t.GradientFrom), orDash(t.GradientTo), orDash(t.Title))
		}
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" || s == "." {
		return "-"
	}
	return s
}

// ── Kit source ──

// KitSource serves a kit's declared logos, and any other file in the kit by
// relative name.
type KitSource struct {
	kit *Kit
}

func (s KitSource) Name() string { return "kit:" + s.kit.Meta.Name }

func (s KitSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return DirSource{Dir: s.kit.Dir}.Open(ctx, name)
}

// OpenKind opens the logo file declared in kit.json for kind.
func (s KitSource) OpenKind(ctx context.Context, kind overlay.LogoKind) (io.ReadCloser, string, error) {
	var p string
	switch kind {
	case overlay.LogoCircle:
		p = s.kit.Logos.Circle
	case overlay.LogoHorizontal:
		p = s.kit.Logos.Horizontal
	}
	if p == "" {
		return nil, "", fmt.Errorf("kit %s declares no %s logo: %w", s.kit.Meta.Name, kind, ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, p, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, p, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, p, err
	}
	return f, filepath.Base(p), nil
}

// ── ZIP extraction ──

// extractZip extracts all files from a zip reader into destDir.
func extractZip(r *zip.Reader, destDir string) error {
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes a single zip entry to disk.
func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
