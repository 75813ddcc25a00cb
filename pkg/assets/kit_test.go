package assets

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xob0t/CoverStencil/pkg/overlay"
)

// writeKit builds a .cskit archive from name → content.
func writeKit(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brand.cskit")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

const kitJSON = `{
  "meta": {"name": "Diario", "version": "2", "author": "Mesa"},
  "themes": [
    {"name": "Medianoche", "gradientFrom": "#000010", "title": "#fafafa"},
    {"name": "", "title": "#ffffff"},
    {"name": "roto", "alertBg": "rojo"}
  ],
  "logos": {"circle": "art/circle.png", "horizontal": "art/wide.png"}
}`

func TestLoadKit(t *testing.T) {
	path := writeKit(t, map[string][]byte{
		"kit.json":       []byte(kitJSON),
		"art/circle.png": pngBytes(t, 12, 12),
	})

	kit, cleanup, err := LoadKit(path)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "Diario", kit.Meta.Name)
	assert.Equal(t, filepath.Join(kit.Dir, "art", "circle.png"), kit.Logos.Circle)
	assert.Empty(t, kit.Font)

	assert.Equal(t, []string{
		`horizontal file wide.png is missing`,
		`theme "roto": alertBg "rojo" is not a hex color`,
		`theme #2 has no name; skipped`,
	}, kit.Validate())

	// The declared logo beats candidate names in later sources.
	other := NewMemorySource()
	other.Put("logo-circle.png", pngBytes(t, 3, 3))
	chain := NewChain(zaptest.NewLogger(t), other)
	chain.Prepend(kit.Source())

	r := chain.Resolve(context.Background(), overlay.LogoCircle)
	require.False(t, r.Placeholder)
	assert.Equal(t, "kit:Diario", r.Source)
	assert.Equal(t, 12, r.Image.Bounds().Dx())

	// A declared but missing logo falls through.
	other.Put("logo-horizontal.png", pngBytes(t, 30, 10))
	r = chain.Resolve(context.Background(), overlay.LogoHorizontal)
	assert.Equal(t, "memory", r.Source)

	cleanup()
	_, err = os.Stat(kit.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadKit_RegistersThemes(t *testing.T) {
	path := writeKit(t, map[string][]byte{"kit.json": []byte(kitJSON)})
	kit, cleanup, err := LoadKit(path)
	require.NoError(t, err)
	defer cleanup()

	n, err := kit.RegisterThemes()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, overlay.HasTheme("medianoche"))
	assert.Equal(t, "#fafafa", overlay.LookupTheme("medianoche").Title)

	out := FormatKit(kit)
	assert.Contains(t, out, "Kit: Diario (v2) by Mesa")
	assert.Contains(t, out, "circle.png")
}

func TestLoadKit_Errors(t *testing.T) {
	tests := map[string]struct {
		files   map[string][]byte
		wantErr string
	}{
		"zip slip":     {files: map[string][]byte{"../evil.txt": []byte("x")}},
		"no kit.json":  {files: map[string][]byte{"readme.txt": []byte("x")}, wantErr: "read kit.json"},
		"bad kit.json": {files: map[string][]byte{"kit.json": []byte("[1]")}, wantErr: "parse kit.json"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, cleanup, err := LoadKit(writeKit(t, tc.files))
			defer cleanup()
			require.Error(t, err)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}

	_, cleanup, err := LoadKit(filepath.Join(t.TempDir(), "missing.cskit"))
	defer cleanup()
	assert.Error(t, err)
}

func TestExampleKitJSON_Parses(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kit.json"), []byte(ExampleKitJSON()), 0o644))
	kit, err := ReadKitDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "Sample Kit", kit.Meta.Name)
	assert.Len(t, kit.Themes, 1)
}
