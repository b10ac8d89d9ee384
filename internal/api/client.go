// Package api defines folio's HTTP endpoints as both routes and CLI
// commands, and the client those commands use.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackzampolin/folio/internal/page"
)

// ErrNetwork wraps failures to reach the server at all.
var ErrNetwork = errors.New("network error")

// StatusError is a non-2xx response. It unwraps to the page error that the
// status code stands for, so callers can test errors.Is(err, page.ErrNotFound).
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return page.ErrNotFound
	case http.StatusBadRequest:
		return page.ErrValidation
	case http.StatusConflict:
		return page.ErrConflict
	case http.StatusUnauthorized:
		return page.ErrUnauthorized
	case http.StatusForbidden:
		return page.ErrForbidden
	}
	if e.Status >= 500 {
		return page.ErrPersistence
	}
	return nil
}

// ErrorResponse matches the server's error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Client is an HTTP client for the folio API.
type Client struct {
	baseURL    string
	token      string
	user       string
	userHeader string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithUser sends user in header, for servers behind a trusted proxy.
func WithUser(header, user string) Option {
	return func(c *Client) { c.userHeader, c.user = header, user }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a new API client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs a GET request and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, result)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, result any) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// PostRaw sends body unencoded with the given content type and headers and
// decodes the JSON response.
func (c *Client) PostRaw(ctx context.Context, path, contentType string, headers map[string]string, body io.Reader, result any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	data, err := c.do(req)
	if err != nil {
		return err
	}
	return decode(data, result)
}

// GetRaw performs a GET request and returns the body unparsed.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	data, err := c.do(req)
	if err != nil {
		return err
	}
	return decode(data, result)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.user != "" && c.userHeader != "" {
		req.Header.Set(c.userHeader, c.user)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrNetwork, err)
	}
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return nil, &StatusError{Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}

func decode(data []byte, result any) error {
	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
