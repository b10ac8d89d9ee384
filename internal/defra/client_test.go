package defra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy_500", http.StatusInternalServerError, true},
		{"unhealthy_503", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health-check" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			err := NewClient(server.URL).HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnhealthy) {
				t.Errorf("HealthCheck() error = %v, want ErrUnhealthy", err)
			}
		})
	}
}

func TestClient_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/graphql" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req GQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Variables["v0"] != "intro" {
			t.Errorf("variables = %v", req.Variables)
		}
		w.Write([]byte(`{"data":{"Page":[{"_docID":"bae-1","slug":"intro"}]}}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL+"/").Execute(context.Background(), "query", map[string]any{"v0": "intro"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var docs []struct {
		DocID string `json:"_docID"`
		Slug  string `json:"slug"`
	}
	if err := resp.Decode("Page", &docs); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(docs) != 1 || docs[0].DocID != "bae-1" || docs[0].Slug != "intro" {
		t.Errorf("docs = %+v", docs)
	}
	if err := resp.Decode("Missing", &docs); err == nil {
		t.Error("Decode() of a missing key should fail")
	}
}

func TestClient_Execute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"empty body", http.StatusOK, ""},
		{"not json", http.StatusOK, "<html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			if _, err := NewClient(server.URL).Execute(context.Background(), "{}", nil); err == nil {
				t.Error("Execute() expected error")
			}
		})
	}
}

func TestClient_Execute_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(server.URL).Execute(ctx, "{}", nil); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestClient_AddSchema(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/schema" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		if strings.Contains(got, "broken") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("syntax error"))
		}
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if err := c.AddSchema(context.Background(), "type Page { slug: String }"); err != nil {
		t.Fatalf("AddSchema() error = %v", err)
	}
	if got != "type Page { slug: String }" {
		t.Errorf("sent %q", got)
	}
	if err := c.AddSchema(context.Background(), "broken"); err == nil || !strings.Contains(err.Error(), "syntax error") {
		t.Errorf("AddSchema() error = %v", err)
	}
}

func TestClient_Mutations(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GQLRequest
		json.NewDecoder(r.Body).Decode(&req)
		queries = append(queries, req.Query)
		switch {
		case strings.Contains(req.Query, "create_Page"):
			if strings.Contains(req.Query, `"taken"`) {
				w.Write([]byte(`{"errors":[{"message":"can not index a doc's field(s) that violates unique index"}]}`))
				return
			}
			w.Write([]byte(`{"data":{"create_Page":[{"_docID":"bae-new"}]}}`))
		default:
			w.Write([]byte(`{"data":{"update_Page":[]}}`))
		}
	}))
	defer server.Close()

	c := NewClient(server.URL)
	ctx := context.Background()

	id, err := c.Create(ctx, "Page", map[string]any{"slug": "intro", "tags": []string{"a"}, "published": true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "bae-new" {
		t.Errorf("Create() = %q", id)
	}
	want := `mutation { create_Page(input: {published: true, slug: "intro", tags: ["a"]}) { _docID } }`
	if queries[0] != want {
		t.Errorf("query = %s\nwant    %s", queries[0], want)
	}

	_, err = c.Create(ctx, "Page", map[string]any{"slug": "taken"})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || !strings.Contains(reqErr.Message, "unique index") {
		t.Errorf("Create() error = %v, want RequestError", err)
	}

	if err := c.Update(ctx, "Page", "bae-new", map[string]any{"title": "x"}); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("Update() error = %v, want ErrEmptyResult", err)
	}
	if err := c.Update(ctx, "Page", `bae") { x }`, nil); err == nil {
		t.Error("Update() accepted an unsafe ID")
	}
}

func TestValueToGraphQL(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "a \"quoted\"\nline", `"a \"quoted\"\nline"`},
		{"control char", "\a", `"\u0007"`},
		{"int", 3, "3"},
		{"bool", false, "false"},
		{"nil", nil, "null"},
		{"nested", map[string]any{"b": 1, "a": "x"}, `{a: "x", b: 1}`},
		{"list", []any{"x", 2}, `["x", 2]`},
		{"empty strings", []string{}, `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := valueToGraphQL(tt.in)
			if err != nil {
				t.Fatalf("valueToGraphQL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("valueToGraphQL() = %s, want %s", got, tt.want)
			}
		})
	}
}
