package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/page"
)

func TestIdentify(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	g := NewGuard(Policy{Tokens: []config.TokenConfig{{User: "alice", Hash: string(hash)}}})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
		wantErr error
	}{
		{"anonymous", nil, "", nil},
		{"trusted header", map[string]string{"X-User-ID": " bob "}, "bob", nil},
		{"token", map[string]string{"Authorization": "Bearer s3cret"}, "alice", nil},
		{"token wins over header", map[string]string{"Authorization": "Bearer s3cret", "X-User-ID": "bob"}, "alice", nil},
		{"bad token", map[string]string{"Authorization": "Bearer nope"}, "", page.ErrUnauthorized},
		{"malformed", map[string]string{"Authorization": "Basic abc"}, "", page.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			got, err := g.Identify(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Identify() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Identify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		user    string
		wantErr error
	}{
		{"open anonymous", Policy{}, "", nil},
		{"open user", Policy{}, "bob", nil},
		{"required anonymous", Policy{Required: true}, "", page.ErrUnauthorized},
		{"required user", Policy{Required: true}, "bob", nil},
		{"editor", Policy{Editors: []string{"alice"}}, "alice", nil},
		{"not an editor", Policy{Editors: []string{"alice"}}, "bob", page.ErrForbidden},
		{"editors anonymous", Policy{Editors: []string{"alice"}}, "", page.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(tt.policy)
			got, err := g.Authorize(WithUser(context.Background(), tt.user))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authorize() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.user {
				t.Errorf("Authorize() = %q, want %q", got, tt.user)
			}
		})
	}
}

func TestGuard_Update(t *testing.T) {
	g := NewGuard(Policy{})
	ctx := WithUser(context.Background(), "")
	if _, err := g.Authorize(ctx); err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	g.Update(Policy{Required: true, UserHeader: "X-Remote-User"})
	if _, err := g.Authorize(ctx); !errors.Is(err, page.ErrUnauthorized) {
		t.Errorf("Authorize() after update error = %v", err)
	}
	if got := g.Policy().UserHeader; got != "X-Remote-User" {
		t.Errorf("UserHeader = %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	g := NewGuard(Policy{})
	var seen string
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-User-ID", "carol")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "carol" {
		t.Errorf("user = %q, want carol", seen)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer unknown")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHashToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	hash, err := HashToken(token)
	if err != nil {
		t.Fatalf("HashToken() error = %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
		t.Error("hash does not match token")
	}
	if _, err := HashToken(""); err == nil {
		t.Error("HashToken(\"\") should fail")
	}
}
