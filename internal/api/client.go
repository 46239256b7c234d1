// Package api provides thin clients for the BRD backend: chat, projects,
// templates, file upload and download, and the Jira bridge endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buker/brdesk/internal/logging"
	"github.com/buker/brdesk/internal/stream"
)

var log = logging.New("API")

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// Client talks to the BRD backend.
type Client struct {
	baseURL string
	chatURL string

	// http carries the request timeout; streaming uses streamHTTP, which has none.
	http       *http.Client
	streamHTTP *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces both underlying HTTP clients. The timeout of hc
// applies to non-streaming calls only.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
		streamCopy := *hc
		streamCopy.Timeout = 0
		c.streamHTTP = &streamCopy
	}
}

// NewClient creates a client. chatURL may be empty to use <baseURL>/chat.
func NewClient(baseURL, chatURL string, timeout time.Duration, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if chatURL == "" {
		chatURL = baseURL + "/chat"
	}
	c := &Client{
		baseURL:    baseURL,
		chatURL:    chatURL,
		http:       &http.Client{Timeout: timeout},
		streamHTTP: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// endpoint joins path and query onto the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func newGet(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func jsonBody(v any) (io.Reader, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(payload), nil
}

// getJSON performs an idempotent GET with retries and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return executeWithRetry(ctx, func() error {
		req, err := newGet(ctx, c.endpoint(path, query))
		if err != nil {
			return err
		}
		return c.doJSON(req, out)
	})
}

// postJSON sends in as a JSON body and decodes the response into out. POSTs
// are not retried.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := jsonBody(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return classify(c.doJSON(req, out))
}

// doJSON executes req and decodes a 2xx JSON body into out. Non-2xx responses
// become *stream.RemoteError.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.do(c.http, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do sends req and converts non-2xx responses into *stream.RemoteError.
func (c *Client) do(hc *http.Client, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		log.Debugf("%s %s failed after %v: %v", req.Method, req.URL.Path, time.Since(start), err)
		return nil, err
	}
	log.Debugf("%s %s -> %d (%v)", req.Method, req.URL.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &stream.RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}
