package middleware

import (
	"net/http"
)

// RequireRole wraps a handler and allows only the given role.
func RequireRole(need string) func(http.Handler) http.Handler {
	return RBAC(need)
}
