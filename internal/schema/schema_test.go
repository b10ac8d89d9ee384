package schema

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/defra"
)

func TestAll(t *testing.T) {
	schemas, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(schemas) != 1 || schemas[0].Name != "Page" {
		t.Fatalf("All() = %+v", schemas)
	}
	for _, field := range []string{"type Page", "slug: String @index(unique: true)", "tags: [String]", "isDeleted: Boolean"} {
		if !strings.Contains(schemas[0].SDL, field) {
			t.Errorf("Page SDL missing %q", field)
		}
	}
}

func TestGet(t *testing.T) {
	if _, err := Get("Page"); err != nil {
		t.Errorf("Get(Page) error = %v", err)
	}
	if _, err := Get("Missing"); err == nil {
		t.Error("expected error for unknown schema")
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"added", http.StatusOK, "", false},
		{"already exists", http.StatusBadRequest, "collection already exists. Name: Page", false},
		{"syntax error", http.StatusBadRequest, "invalid schema syntax", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v0/schema" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := Initialize(context.Background(), defra.NewClient(server.URL), slog.Default())
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("collection already exists. Name: Page"), true},
		{errors.New("invalid syntax"), false},
	}
	for _, tt := range tests {
		if got := isAlreadyExistsError(tt.err); got != tt.want {
			t.Errorf("isAlreadyExistsError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
