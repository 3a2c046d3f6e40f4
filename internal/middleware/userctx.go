package middleware

import (
	"net/http"

	"github.com/baharkarakas/library-backend/internal/access"
	"github.com/baharkarakas/library-backend/internal/logger"
)

// withUser stores the authenticated caller and tags the request logger with it.
func withUser(r *http.Request, c access.Caller) *http.Request {
	ctx := access.WithCaller(r.Context(), c)
	l := logger.FromContext(ctx, nil).With("user_id", c.SubjectID, "role", c.Role)
	return r.WithContext(logger.WithContext(ctx, l))
}

// CallerFrom returns the authenticated caller, or the zero Caller.
func CallerFrom(r *http.Request) access.Caller {
	c, _ := access.FromContext(r.Context())
	return c
}
