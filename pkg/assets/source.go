// Package assets locates brand artwork (logos, fonts, brand kits) for the
// preview renderer and the editor service.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// ErrNotFound is returned (wrapped) when a source has no asset by that name.
var ErrNotFound = errors.New("asset not found")

// Source opens named assets. Names use forward slashes.
type Source interface {
	Name() string
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// cleanName rejects names that would escape the source root.
func cleanName(name string) (string, error) {
	c := path.Clean("/" + name)[1:]
	if c == "" || c != name && c != path.Clean(name) {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	return c, nil
}

// ── Directory ──

// DirSource reads assets from a directory on disk.
type DirSource struct {
	Dir string
}

// NewDirSource expands a leading ~ in dir.
func NewDirSource(dir string) (DirSource, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return DirSource{}, fmt.Errorf("expand %s: %w", dir, err)
	}
	return DirSource{Dir: expanded}, nil
}

func (s DirSource) Name() string { return "dir:" + s.Dir }

func (s DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.Dir, filepath.FromSlash(n)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s in %s: %w", name, s.Dir, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ── HTTP ──

// HTTPSource fetches assets relative to a base URL.
type HTTPSource struct {
	Base   *url.URL
	Client *http.Client
}

// NewHTTPSource parses base. A nil client uses http.DefaultClient.
func NewHTTPSource(base string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse asset base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("asset base URL %q: scheme must be http or https", base)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{Base: u, Client: client}, nil
}

func (s *HTTPSource) Name() string { return "http:" + s.Base.String() }

func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	n, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Base.JoinPath(n).String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s at %s: %w", name, s.Base, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", name, resp.Status)
	}
	return resp.Body, nil
}

// ── Memory ──

// MemorySource holds uploaded assets. It is safe for concurrent use.
type MemorySource struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemorySource returns an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{data: make(map[string][]byte)}
}

func (s *MemorySource) Name() string { return "memory" }

// Put stores data under name, replacing any previous value.
func (s *MemorySource) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = data
}

// Get returns the bytes stored under name.
func (s *MemorySource) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[name]
	return data, ok
}

// Delete removes name and reports whether it existed.
func (s *MemorySource) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[name]
	delete(s.data, name)
	return ok
}

// Names lists stored names in order.
func (s *MemorySource) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *MemorySource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.data[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s in memory: %w", name, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
