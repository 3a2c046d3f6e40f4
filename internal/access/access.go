// Package access holds the caller identity and the capability checks the
// HTTP layer evaluates before calling into services.
package access

import (
	"context"

	"github.com/baharkarakas/library-backend/internal/models"
)

type Caller struct {
	SubjectID string
	Role      string
}

func (c Caller) IsAdmin() bool { return c.Role == models.RoleAdmin }

func (c Caller) Authenticated() bool { return c.SubjectID != "" }

// CanAccessAssignment: the borrower or any admin.
func CanAccessAssignment(c Caller, a models.Assignment) bool {
	return c.IsAdmin() || (c.Authenticated() && a.UserID == c.SubjectID)
}

// CanViewUserAssignments: the user themself or any admin.
func CanViewUserAssignments(c Caller, userID string) bool {
	return c.IsAdmin() || (c.Authenticated() && userID == c.SubjectID)
}

// CanDeleteReview: only the review's author.
func CanDeleteReview(c Caller, r models.Review) bool {
	return c.Authenticated() && r.UserID == c.SubjectID
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok && c.Authenticated()
}
