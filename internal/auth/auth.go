// Package auth identifies the user behind a request and decides whether
// that user may write. Reads are always public.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"

	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/page"
)

// DefaultUserHeader carries the user id set by a trusted proxy.
const DefaultUserHeader = "X-User-ID"

// Policy is a snapshot of the auth settings.
type Policy struct {
	UserHeader string
	Required   bool
	Editors    []string
	Tokens     []config.TokenConfig
}

// PolicyFrom builds a Policy from configuration.
func PolicyFrom(c config.AuthConfig) Policy {
	return Policy{
		UserHeader: c.UserHeader,
		Required:   c.Required,
		Editors:    c.Editors,
		Tokens:     c.Tokens,
	}
}

// Guard applies the current Policy. The policy can be swapped while
// requests are in flight.
type Guard struct {
	policy atomic.Pointer[Policy]
}

// NewGuard creates a guard enforcing p.
func NewGuard(p Policy) *Guard {
	g := &Guard{}
	g.Update(p)
	return g
}

// Update replaces the policy.
func (g *Guard) Update(p Policy) {
	if p.UserHeader == "" {
		p.UserHeader = DefaultUserHeader
	}
	g.policy.Store(&p)
}

// Policy returns the policy in effect.
func (g *Guard) Policy() Policy {
	return *g.policy.Load()
}

// Identify returns the user making r, or "" for anonymous requests. A bearer
// token that matches no configured hash is ErrUnauthorized.
func (g *Guard) Identify(r *http.Request) (string, error) {
	p := g.policy.Load()
	if authz := r.Header.Get("Authorization"); authz != "" {
		token, ok := strings.CutPrefix(authz, "Bearer ")
		if !ok || token == "" {
			return "", fmt.Errorf("%w: malformed authorization header", page.ErrUnauthorized)
		}
		for _, t := range p.Tokens {
			if bcrypt.CompareHashAndPassword([]byte(t.Hash), []byte(token)) == nil {
				return t.User, nil
			}
		}
		return "", fmt.Errorf("%w: unknown token", page.ErrUnauthorized)
	}
	return strings.TrimSpace(r.Header.Get(p.UserHeader)), nil
}

// Middleware resolves the user of every request and stores it in the
// request context. Requests with a bad token are rejected here.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.Identify(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintf(w, "{\"error\":%q}\n", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Authorize checks that the user in ctx may write and returns it.
func (g *Guard) Authorize(ctx context.Context) (string, error) {
	p := g.policy.Load()
	user := UserFrom(ctx)
	if user == "" {
		if p.Required || len(p.Editors) > 0 {
			return "", fmt.Errorf("%w: sign in to edit pages", page.ErrUnauthorized)
		}
		return "", nil
	}
	if len(p.Editors) > 0 && !slices.Contains(p.Editors, user) {
		return "", fmt.Errorf("%w: %s may not edit pages", page.ErrForbidden, user)
	}
	return user, nil
}

type userKey struct{}

// WithUser attaches a user id to ctx.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the user id in ctx, or "".
func UserFrom(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}

// HashToken returns the bcrypt hash stored in auth.tokens for token.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token is empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(h), nil
}

// GenerateToken returns a random URL-safe token.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
