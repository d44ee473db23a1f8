// Package apiclient talks to the storefront REST backend.
//
// Every response is expected to use the envelope
//
//	{"success": bool, "data": ..., "message": "..."}
//
// Non-2xx statuses and {"success": false} envelopes are turned into *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mkrupp/storefront/internal/infra/logging"
	http_ "github.com/mkrupp/storefront/internal/infra/transport/http"
)

// Client sends JSON requests to the backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        logging.Logger
	cfg        Config
}

// New creates a Client for cfg.BaseURL. tokens supplies the bearer token and
// may be nil. If base is nil, a default transport is used; tests pass the
// transport of an httptest server here.
func New(cfg Config, tokens http_.TokenSource, base http.RoundTripper) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", cfg.BaseURL)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: http_.NewClient(cfg.Transport, base, tokens, baseURL.Host),
		log:        logging.GetLogger("apiclient"),
		cfg:        cfg,
	}, nil
}

// BaseURL returns the backend's base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL

	return &u
}

// Get is shorthand for Do with GET.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post is shorthand for Do with POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put is shorthand for Do with PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Patch is shorthand for Do with PATCH.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete is shorthand for Do with DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends the request and decodes the envelope's "data" member into out.
// If the response has no envelope, the whole body is decoded. out may be nil.
// Pass a *json.RawMessage to receive the complete body for use with Unwrap.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}

	if out == nil || raw == nil {
		return nil
	}

	if rawOut, ok := out.(*json.RawMessage); ok {
		*rawOut = raw

		return nil
	}

	data, ok, err := lookup(raw, "data")
	if err != nil || !ok {
		data = raw
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (raw json.RawMessage, err error) {
	log := c.log.With(logging.Group("request", "method", method, "path", path))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "request failed", "error", err)
		}
	}()

	var reqBody io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}

		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reqBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var envelope map[string]any

	if len(bytes.TrimSpace(data)) > 0 && json.Valid(data) {
		raw = data
		_ = json.Unmarshal(data, &envelope) // non-object bodies have no envelope
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, envelope)
	}

	if success, ok := envelope["success"].(bool); ok && !success {
		return nil, newSemanticError(resp.StatusCode, envelope)
	}

	return raw, nil
}

// Download fetches rawURL without JSON handling. Relative URLs are resolved
// against the base URL. The session token is only sent when rawURL points at
// the backend. The body is limited to Config.MaxDownloadBytes.
func (c *Client) Download(ctx context.Context, rawURL string) (data []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(rawURL), nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", newStatusError(resp.StatusCode, nil)
	}

	limit := c.cfg.MaxDownloadBytes
	if limit <= 0 {
		limit = 10 << 20
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, limit)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL.String() + path
}

// IsRejection reports whether err came from the backend rather than the network.
func IsRejection(err error) bool {
	var apiErr *Error

	return errors.As(err, &apiErr)
}

// API is the request surface services depend on. *Client implements it.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

var _ API = (*Client)(nil)
