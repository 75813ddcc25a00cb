// defaults.go — Hard-coded layout defaults and query-parameter overrides.
package overlay

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultLayout returns the layout the editor opens with.
func DefaultLayout() LayoutState {
	return LayoutState{
		BlockTopPct:      58,
		OverlayHeightPct: 34,
		OverlayOpacity:   0.85,
		TitleFontPx:      44,
		SubtitleFontPx:   26,
		Title:            TextOffset{XPct: 0, YPct: 24},
		Subtitle:         TextOffset{XPct: 0, YPct: 64},
		Alert:            TextOffset{XPct: 0, YPct: 4},
		AlertEnabled:     false,
		Logo: Logo{
			Kind:     LogoCircle,
			XPct:     88,
			YPct:     4,
			WidthPct: 9,
			Opacity:  1,
		},
		Header: Header{Enabled: false},
		Texts: Texts{
			AlertTag: "Última hora",
		},
		Theme: DefaultTheme,
	}
}

// queryKeys lists every parameter FromQuery understands.
var queryKeys = map[string]struct{}{
	"theme": {}, "header": {}, "date": {}, "label": {},
	"title": {}, "subtitle": {}, "alert": {}, "alertTag": {}, "handle": {},
	"blockTopPct": {}, "overlayHeightPct": {}, "overlayOpacity": {},
	"titleFont": {}, "subtitleFont": {},
	"logo": {}, "logoX": {}, "logoY": {}, "logoW": {}, "logoOpacity": {},
	"titleX": {}, "titleY": {}, "subtitleX": {}, "subtitleY": {}, "alertX": {}, "alertY": {},
}

// FromQuery overlays editor query parameters on DefaultLayout. Problems are
// returned as warnings; the affected field keeps its default. Numeric values
// outside their range are clamped, except text offsets, which are unbounded.
func FromQuery(q url.Values) (LayoutState, []string) {
	s := DefaultLayout()
	var warnings []string

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := queryKeys[k]; !ok {
			warnings = append(warnings, fmt.Sprintf("unknown parameter %q; ignored", k))
		}
	}

	num := func(key string, dst *float64, lo, hi float64) {
		raw := q.Get(key)
		if raw == "" {
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			warnings = append(warnings, fmt.Sprintf("parameter %q: %q is not a number; using default", key, raw))
			return
		}
		*dst = clamp(v, lo, hi)
	}
	str := func(key string, dst *string) {
		if _, ok := q[key]; ok {
			*dst = q.Get(key)
		}
	}
	flag := func(key string, dst *bool) {
		raw := q.Get(key)
		if raw == "" {
			return
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("parameter %q: %q is not a boolean; using default", key, raw))
			return
		}
		*dst = v
	}

	if name := q.Get("theme"); name != "" {
		if HasTheme(name) {
			s.Theme = strings.ToLower(name)
		} else {
			warnings = append(warnings, fmt.Sprintf("unknown theme %q; using %q", name, s.Theme))
		}
	}

	flag("header", &s.Header.Enabled)
	str("date", &s.Header.Date)
	str("label", &s.Header.Label)
	str("title", &s.Texts.Title)
	str("subtitle", &s.Texts.Subtitle)
	str("alertTag", &s.Texts.AlertTag)
	str("handle", &s.Texts.Handle)
	flag("alert", &s.AlertEnabled)

	num("blockTopPct", &s.BlockTopPct, 0, 100)
	num("overlayHeightPct", &s.OverlayHeightPct, 0, 100)
	num("overlayOpacity", &s.OverlayOpacity, 0, 1)
	num("titleFont", &s.TitleFontPx, 8, 200)
	num("subtitleFont", &s.SubtitleFontPx, 8, 200)

	if raw := q.Get("logo"); raw != "" {
		switch strings.ToLower(raw) {
		case string(LogoCircle):
			s.Logo.Kind = LogoCircle
		case string(LogoHorizontal):
			s.Logo.Kind = LogoHorizontal
		case "none", "off", "false":
			s.Logo.Kind = LogoNone
		default:
			warnings = append(warnings, fmt.Sprintf("parameter \"logo\": %q is not circle, horizontal or none; using default", raw))
		}
	}
	num("logoX", &s.Logo.XPct, 0, 100)
	num("logoY", &s.Logo.YPct, 0, 100)
	num("logoW", &s.Logo.WidthPct, LogoMinWidthPct, LogoMaxWidthPct)
	num("logoOpacity", &s.Logo.Opacity, LogoMinOpacity, LogoMaxOpacity)

	free := math.Inf(1)
	num("titleX", &s.Title.XPct, -free, free)
	num("titleY", &s.Title.YPct, -free, free)
	num("subtitleX", &s.Subtitle.XPct, -free, free)
	num("subtitleY", &s.Subtitle.YPct, -free, free)
	num("alertX", &s.Alert.XPct, -free, free)
	num("alertY", &s.Alert.YPct, -free, free)

	return s, warnings
}

// ToQuery is the inverse of FromQuery for the fields it understands.
func ToQuery(s LayoutState) url.Values {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	q := url.Values{}
	q.Set("theme", s.Theme)
	q.Set("header", strconv.FormatBool(s.Header.Enabled))
	setNonEmpty(q, "date", s.Header.Date)
	setNonEmpty(q, "label", s.Header.Label)
	setNonEmpty(q, "title", s.Texts.Title)
	setNonEmpty(q, "subtitle", s.Texts.Subtitle)
	setNonEmpty(q, "alertTag", s.Texts.AlertTag)
	setNonEmpty(q, "handle", s.Texts.Handle)
	q.Set("alert", strconv.FormatBool(s.AlertEnabled))
	q.Set("blockTopPct", f(s.BlockTopPct))
	q.Set("overlayHeightPct", f(s.OverlayHeightPct))
	q.Set("overlayOpacity", f(s.OverlayOpacity))
	q.Set("titleFont", f(s.TitleFontPx))
	q.Set("subtitleFont", f(s.SubtitleFontPx))
	if s.Logo.Kind == LogoNone {
		q.Set("logo", "none")
	} else {
		q.Set("logo", string(s.Logo.Kind))
		q.Set("logoX", f(s.Logo.XPct))
		q.Set("logoY", f(s.Logo.YPct))
		q.Set("logoW", f(s.Logo.WidthPct))
		q.Set("logoOpacity", f(s.Logo.Opacity))
	}
	q.Set("titleX", f(s.Title.XPct))
	q.Set("titleY", f(s.Title.YPct))
	q.Set("subtitleX", f(s.Subtitle.XPct))
	q.Set("subtitleY", f(s.Subtitle.YPct))
	q.Set("alertX", f(s.Alert.XPct))
	q.Set("alertY", f(s.Alert.YPct))
	return q
}

func setNonEmpty(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}
