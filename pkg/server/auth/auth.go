// Package auth provides the token based request authentication of the
// HTTP API. An empty admin token disables the checks.
package auth

import (
	"context"
	"net/http"

	"github.com/pitwall-labs/f1-strategy-manager-go/log"
)

const tokenHeader = "api-token"

type (
	Role string

	middleware struct {
		adminToken string
		l          *log.Logger
	}
	Option func(*middleware)

	principalKey int
)

const (
	RoleAdmin Role = "admin"
	RoleAnon  Role = "anon"
)

func WithAdminToken(token string) Option {
	return func(m *middleware) {
		m.adminToken = token
	}
}

func WithLogger(l *log.Logger) Option {
	return func(m *middleware) {
		m.l = l
	}
}

// NewMiddleware resolves the caller's role from the api-token header and
// stores it on the request context.
func NewMiddleware(opts ...Option) func(http.Handler) http.Handler {
	m := &middleware{l: log.Default().Named("server.auth")}
	for _, opt := range opts {
		opt(m)
	}
	return m.wrap
}

func (m *middleware) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := RoleAnon
		if m.adminToken == "" || r.Header.Get(tokenHeader) == m.adminToken {
			role = RoleAdmin
		}
		ctx := context.WithValue(r.Context(), principalKey(0), role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the role resolved by the middleware.
func FromContext(ctx context.Context) Role {
	if role, ok := ctx.Value(principalKey(0)).(Role); ok {
		return role
	}
	return RoleAnon
}

// RequireAdmin guards mutating endpoints.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) != RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
