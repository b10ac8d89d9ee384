// Package defra talks to a DefraDB node over its HTTP API and manages the
// node's Docker container.
package defra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

var (
	// ErrUnhealthy is returned when the health check fails.
	ErrUnhealthy = errors.New("defra health check failed")

	// ErrEmptyResult is returned when a mutation reports no documents.
	ErrEmptyResult = errors.New("defra returned no documents")
)

// Client is a DefraDB HTTP/GraphQL client.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the node at url.
func NewClient(url string) *Client {
	return &Client{
		url: strings.TrimSuffix(url, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// URL returns the node's base URL.
func (c *Client) URL() string {
	return c.url
}

// GQLRequest is a GraphQL request body.
type GQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GQLResponse is a GraphQL response body.
type GQLResponse struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors []GQLError     `json:"errors,omitempty"`
}

// GQLError is a single GraphQL error.
type GQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Error returns the first error message or empty string.
func (r *GQLResponse) Error() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// Decode re-encodes the data under key into v.
func (r *GQLResponse) Decode(key string, v any) error {
	raw, ok := r.Data[key]
	if !ok {
		return fmt.Errorf("response has no %q field", key)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to re-encode %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// RequestError is a GraphQL error reported by a mutation.
type RequestError struct {
	Op      string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Op, e.Message)
}

// HealthCheck checks if DefraDB is healthy.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/health-check", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Execute sends a GraphQL request and returns the response.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (*GQLResponse, error) {
	body, err := json.Marshal(GQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/v0/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("defra server error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if len(respBody) == 0 {
		return nil, fmt.Errorf("defra returned empty response (status %d)", resp.StatusCode)
	}

	var gqlResp GQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w (body: %s)", err, string(respBody))
	}
	return &gqlResp, nil
}

// AddSchema adds a GraphQL SDL schema.
func (c *Client) AddSchema(ctx context.Context, sdl string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/v0/schema", strings.NewReader(sdl))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("schema error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// Create creates a document in collection and returns its document ID.
func (c *Client) Create(ctx context.Context, collection string, input map[string]any) (string, error) {
	inputGQL, err := mapToGraphQLInput(input)
	if err != nil {
		return "", fmt.Errorf("failed to build input: %w", err)
	}
	query := fmt.Sprintf(`mutation { create_%s(input: %s) { _docID } }`, collection, inputGQL)
	return c.mutate(ctx, "create", "create_"+collection, query)
}

// Update replaces the given fields of the document docID.
func (c *Client) Update(ctx context.Context, collection, docID string, input map[string]any) error {
	if err := ValidateID(docID); err != nil {
		return err
	}
	inputGQL, err := mapToGraphQLInput(input)
	if err != nil {
		return fmt.Errorf("failed to build input: %w", err)
	}
	query := fmt.Sprintf(`mutation { update_%s(docID: %q, input: %s) { _docID } }`, collection, docID, inputGQL)
	_, err = c.mutate(ctx, "update", "update_"+collection, query)
	return err
}

// mutate runs a mutation and returns the _docID of the first document.
func (c *Client) mutate(ctx context.Context, op, key, query string) (string, error) {
	resp, err := c.Execute(ctx, query, nil)
	if err != nil {
		return "", err
	}
	if msg := resp.Error(); msg != "" {
		return "", &RequestError{Op: op, Message: msg}
	}

	var docs []struct {
		DocID string `json:"_docID"`
	}
	if err := resp.Decode(key, &docs); err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResult)
	}
	return docs[0].DocID, nil
}

// mapToGraphQLInput converts a map to a GraphQL input object with sorted keys.
func mapToGraphQLInput(input map[string]any) (string, error) {
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		val, err := valueToGraphQL(input[k])
		if err != nil {
			return "", fmt.Errorf("failed to convert value for key %q: %w", k, err)
		}
		parts = append(parts, k+": "+val)
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

// valueToGraphQL converts a Go value to GraphQL literal syntax.
func valueToGraphQL(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		// JSON string escapes are a subset of what GraphQL accepts; %q is not.
		b, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("failed to marshal string: %w", err)
		}
		return string(b), nil
	case int, int64:
		return fmt.Sprintf("%d", val), nil
	case float64, bool:
		return fmt.Sprintf("%v", val), nil
	case map[string]any:
		return mapToGraphQLInput(val)
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return valueToGraphQL(items)
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			s, err := valueToGraphQL(item)
			if err != nil {
				return "", err
			}
			items = append(items, s)
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("failed to marshal value: %w", err)
		}
		return string(b), nil
	}
}
