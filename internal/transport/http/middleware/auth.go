package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskflow-api/internal/domain"
	jwtinfra "github.com/taskflow-api/internal/infrastructure/jwt"
)

type contextKey string

const claimsKey contextKey = "claims"

// AccessTokenCookie carries the session JWT for browser clients.
const AccessTokenCookie = "access_token"

type tokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the session JWT and injects claims into context.
// The access_token cookie wins over an Authorization Bearer header.
func Auth(provider tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := sessionToken(r)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing session token")
				return
			}
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *jwtinfra.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: c.UserID, Role: c.Role}, true
}
