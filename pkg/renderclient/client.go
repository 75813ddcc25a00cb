// Package renderclient submits a photo and its serialized overlay layout to
// the render service, which produces the fixed-size output templates.
package renderclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xob0t/CoverStencil/pkg/overlay"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoEndpoint is returned by Submit when the client has no endpoint configured.
var ErrNoEndpoint = errors.New("render endpoint not configured")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string // first KiB of the response body
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("render service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("render service returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Submission is one render request.
type Submission struct {
	Photo     io.Reader
	PhotoName string
	Payload   overlay.Payload
	// Fields are extra form fields, such as title and subtitle.
	Fields map[string]string
}

// Result is the render service response. Outputs maps template name to the
// URL (or path) of the generated file.
type Result struct {
	Outputs map[string]string `json:"outputs"`
}

// Config configures a Client.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
}

// Client posts submissions to the render endpoint. It is safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// New creates a client. A zero RatePerSec disables rate limiting.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &Client{
		endpoint: cfg.Endpoint,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, max(cfg.Burst, 1)),
		logger:   logger.Named("renderclient"),
	}
}

// Submit sends s as multipart/form-data: the photo in the "image" file part
// and the payload JSON in the "optionsJson" field.
func (c *Client) Submit(ctx context.Context, s Submission) (*Result, error) {
	if c.endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if s.Photo == nil {
		return nil, errors.New("submit: photo is required")
	}

	body, contentType, err := encodeForm(s)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("submit: waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("render response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("submit: decode response: %w", err)
	}
	if result.Outputs == nil {
		result.Outputs = map[string]string{}
	}
	return &result, nil
}

// encodeForm builds the multipart body.
func encodeForm(s Submission) (*bytes.Buffer, string, error) {
	payload, err := overlay.MarshalPayload(s.Payload)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := s.PhotoName
	if name == "" {
		name = "photo.jpg"
	}
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return nil, "", fmt.Errorf("submit: %w", err)
	}
	if _, err := io.Copy(part, s.Photo); err != nil {
		return nil, "", fmt.Errorf("submit: read photo: %w", err)
	}

	if err := w.WriteField("optionsJson", string(payload)); err != nil {
		return nil, "", fmt.Errorf("submit: %w", err)
	}

	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "image" || k == "optionsJson" {
			continue
		}
		if err := w.WriteField(k, s.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("submit: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("submit: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
