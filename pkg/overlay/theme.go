// theme.go — Color presets for the band, text, footer handle and alert tag.
package overlay

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultTheme is used when a state names no theme or an unknown one.
const DefaultTheme = "azul"

// Theme is a color preset. It is a plain value with no identity beyond Name.
type Theme struct {
	Name         string `json:"name"`
	GradientFrom string `json:"gradientFrom"` // band top, "#rrggbb"
	GradientTo   string `json:"gradientTo"`   // band bottom
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Handle       string `json:"handle"`
	AlertBg      string `json:"alertBg"`
	HeaderBg     string `json:"headerBg"`
	FooterBg     string `json:"footerBg"`
}

var (
	themesMu sync.RWMutex
	themes   = map[string]Theme{
		"azul": {
			Name: "azul", GradientFrom: "#0b1f3a", GradientTo: "#123a6b",
			Title: "#ffffff", Subtitle: "#d6e4ff", Handle: "#ffffff",
			AlertBg: "#e63946", HeaderBg: "#0b1f3a", FooterBg: "#07162b",
		},
		"rojo": {
			Name: "rojo", GradientFrom: "#3a0b0b", GradientTo: "#8c1c13",
			Title: "#ffffff", Subtitle: "#ffe1dc", Handle: "#ffffff",
			AlertBg: "#ffb703", HeaderBg: "#5c0f0a", FooterBg: "#2b0706",
		},
		"verde": {
			Name: "verde", GradientFrom: "#0b2e1f", GradientTo: "#1b6b45",
			Title: "#ffffff", Subtitle: "#d8f3dc", Handle: "#ffffff",
			AlertBg: "#e63946", HeaderBg: "#0b2e1f", FooterBg: "#061a11",
		},
		"grafito": {
			Name: "grafito", GradientFrom: "#111111", GradientTo: "#2f2f2f",
			Title: "#ffffff", Subtitle: "#cccccc", Handle: "#f1c40f",
			AlertBg: "#c0392b", HeaderBg: "#1b1b1b", FooterBg: "#000000",
		},
		"dorado": {
			Name: "dorado", GradientFrom: "#2b1d05", GradientTo: "#7a5611",
			Title: "#fff8e1", Subtitle: "#ffe8a3", Handle: "#fff8e1",
			AlertBg: "#1d3557", HeaderBg: "#3d2a07", FooterBg: "#1c1303",
		},
	}
)

// LookupTheme returns the named theme, or the default theme if the name is unknown.
func LookupTheme(name string) Theme {
	themesMu.RLock()
	defer themesMu.RUnlock()
	if t, ok := themes[strings.ToLower(name)]; ok {
		return t
	}
	return themes[DefaultTheme]
}

// HasTheme reports whether name is registered.
func HasTheme(name string) bool {
	themesMu.RLock()
	defer themesMu.RUnlock()
	_, ok := themes[strings.ToLower(name)]
	return ok
}

// RegisterTheme adds or replaces a theme. Empty colors inherit from the default theme.
func RegisterTheme(t Theme) error {
	if t.Name == "" {
		return fmt.Errorf("register theme: name is required")
	}
	t.Name = strings.ToLower(t.Name)

	themesMu.Lock()
	defer themesMu.Unlock()
	base := themes[DefaultTheme]
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&t.GradientFrom, base.GradientFrom)
	fill(&t.GradientTo, base.GradientTo)
	fill(&t.Title, base.Title)
	fill(&t.Subtitle, base.Subtitle)
	fill(&t.Handle, base.Handle)
	fill(&t.AlertBg, base.AlertBg)
	fill(&t.HeaderBg, base.HeaderBg)
	fill(&t.FooterBg, base.FooterBg)
	themes[t.Name] = t
	return nil
}

// Themes returns all registered themes sorted by name.
func Themes() []Theme {
	themesMu.RLock()
	defer themesMu.RUnlock()
	out := make([]Theme, 0, len(themes))
	for _, t := range themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FormatThemes returns a human-readable table of the registered themes.
func FormatThemes() string {
	var b strings.Builder
	b.WriteString("Themes:\n")
	for _, t := range Themes() {
		fmt.Fprintf(&b, "  %-10s band %s→%s  title %s  subtitle %s  alert %s\n",
			t.Name, t.GradientFrom, t.GradientTo, t.Title, t.Subtitle, t.AlertBg)
	}
	return b.String()
}
