// query.go — Layout input from query strings, query files and payloads.
package main

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/xob0t/CoverStencil/internal/config"
	"github.com/xob0t/CoverStencil/pkg/overlay"
)

// parseQueryLines reads one key=value per line. Blank lines and lines
// starting with '#' are skipped; values are taken literally.
func parseQueryLines(text string) url.Values {
	q := url.Values{}
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		q.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return q
}

// readQuery accepts "theme=verde&logo=none", "?theme=verde" or "@file".
func readQuery(arg string) (url.Values, error) {
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read query file: %w", err)
		}
		return parseQueryLines(string(data)), nil
	}
	q, err := url.ParseQuery(strings.TrimPrefix(arg, "?"))
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return q, nil
}

// loadState builds a layout from a payload file when given, else from the
// query, with the configured theme and header as fallbacks. Warnings are for
// the user, not errors.
func loadState(query, payloadPath string, defaults config.EditorConfig) (overlay.LayoutState, []string, error) {
	if payloadPath != "" {
		data, err := os.ReadFile(payloadPath)
		if err != nil {
			return overlay.LayoutState{}, nil, fmt.Errorf("read payload: %w", err)
		}
		p, err := overlay.UnmarshalPayload(data)
		if err != nil {
			return overlay.LayoutState{}, nil, err
		}
		return overlay.FromPayload(p), nil, nil
	}
	q, err := readQuery(query)
	if err != nil {
		return overlay.LayoutState{}, nil, err
	}
	state, warnings := overlay.FromQuery(q)
	if !q.Has("theme") && defaults.DefaultTheme != "" {
		state.Theme = defaults.DefaultTheme
	}
	if !q.Has("header") {
		state.Header.Enabled = defaults.DefaultHeader
	}
	return state, warnings, nil
}
