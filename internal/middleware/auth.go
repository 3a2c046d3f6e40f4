// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/baharkarakas/library-backend/internal/access"
	"github.com/baharkarakas/library-backend/internal/api/httpx"
	"github.com/baharkarakas/library-backend/internal/auth"
	"github.com/baharkarakas/library-backend/internal/models"
)

type AuthMiddleware struct {
	TM     *auth.TokenManager
	AppEnv string
}

func NewAuthMiddleware(tm *auth.TokenManager, appEnv string) *AuthMiddleware {
	return &AuthMiddleware{TM: tm, AppEnv: appEnv}
}

// Auth requires "Bearer <access JWT>". In dev, "Bearer dev-<uuid>" is
// accepted as a plain user.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if len(ah) < 7 || !strings.EqualFold(ah[:7], "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(ah[7:])

		if m.AppEnv == "dev" && strings.HasPrefix(token, "dev-") {
			uid := strings.TrimPrefix(token, "dev-")
			if _, err := uuid.Parse(uid); err == nil {
				next.ServeHTTP(w, withUser(r, access.Caller{SubjectID: uid, Role: models.RoleUser}))
				return
			}
		}

		claims, err := m.TM.ParseAccess(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid access token", nil)
			return
		}
		next.ServeHTTP(w, withUser(r, access.Caller{SubjectID: claims.UserID, Role: claims.Role}))
	})
}
