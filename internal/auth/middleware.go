package auth

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"agency-dashboard-backend/internal/analytics"
)

type ctxKey string

const principalKey ctxKey = "principal"

type Middleware struct {
	secret []byte
}

func New(secret []byte) Middleware {
	return Middleware{secret: secret}
}

func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(h, "Bearer ")
		p, err := ParseToken(m.secret, tokenString)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(WithPrincipal(r.Context(), p)))
	}
}

// Require wraps next with token validation and a role check.
func (m Middleware) Require(next http.HandlerFunc, roles ...Role) http.HandlerFunc {
	return m.Wrap(func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFromContext(r.Context())
		if !slices.Contains(roles, p.Role) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// WithPrincipal stores p in ctx, and its user id in the analytics context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return analytics.WithUserID(ctx, p.UserID)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
