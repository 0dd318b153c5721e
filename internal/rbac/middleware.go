package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wallhub/wallhub/internal/shared"
)

// PrincipalResolver loads the cached profile/role snapshot for a user id.
// Satisfied by the profiles service.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID string) (*Principal, error)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal placed by the middleware.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Resolver PrincipalResolver
	Logger   *slog.Logger
}

// Require ensures the current user has the permission, resolving the
// principal once and caching it in the request context for the handler.
func (m Middleware) Require(perm PermissionID) func(http.Handler) http.Handler {
	return m.RequireAny(perm)
}

// RequireAny ensures the current user has at least one of the permissions.
func (m Middleware) RequireAny(perms ...PermissionID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := m.resolve(w, r)
			if !ok {
				return
			}
			for _, perm := range perms {
				if HasPermission(principal, perm) {
					next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAuthenticated only asserts a signed-in user, without a permission.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := m.resolve(w, r)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// Attach resolves the principal when a signed-in session exists but never
// rejects. Public routes use it so handlers can branch on permissions.
func (m Middleware) Attach() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || strings.TrimSpace(sess.User()) == "" {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := m.Resolver.ResolvePrincipal(r.Context(), sess.User())
			if err != nil {
				// Anonymous is the safe fallback on resolver failure.
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func (m Middleware) resolve(w http.ResponseWriter, r *http.Request) (*Principal, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}
	userID := strings.TrimSpace(sess.User())
	if userID == "" {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}
	principal, err := m.Resolver.ResolvePrincipal(r.Context(), userID)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("resolve principal", slog.String("user_id", userID), slog.Any("error", err))
		}
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return nil, false
	}
	return principal, true
}
