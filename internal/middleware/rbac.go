package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/library-backend/internal/access"
	"github.com/baharkarakas/library-backend/internal/api/httpx"
)

// RBAC admits callers holding any of roles. Must run after Auth.
func RBAC(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := access.FromContext(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
				return
			}
			if _, ok := allowed[c.Role]; !ok {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "not authorized", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SelfOrAdmin admits admins and the user named by the URL parameter.
func SelfOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := access.FromContext(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
				return
			}
			if !access.CanViewUserAssignments(c, chi.URLParam(r, param)) {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "not authorized", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
