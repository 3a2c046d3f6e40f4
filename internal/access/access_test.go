package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baharkarakas/library-backend/internal/models"
)

func TestCanAccessAssignment(t *testing.T) {
	a := models.Assignment{ID: "a", UserID: "u1"}
	tests := []struct {
		name   string
		caller Caller
		want   bool
	}{
		{"borrower", Caller{SubjectID: "u1", Role: models.RoleUser}, true},
		{"other user", Caller{SubjectID: "u2", Role: models.RoleUser}, false},
		{"admin", Caller{SubjectID: "adm", Role: models.RoleAdmin}, true},
		{"anonymous", Caller{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessAssignment(tt.caller, a))
		})
	}
}

func TestCanViewUserAssignments(t *testing.T) {
	assert.True(t, CanViewUserAssignments(Caller{SubjectID: "u1", Role: models.RoleUser}, "u1"))
	assert.False(t, CanViewUserAssignments(Caller{SubjectID: "u1", Role: models.RoleUser}, "u2"))
	assert.True(t, CanViewUserAssignments(Caller{SubjectID: "adm", Role: models.RoleAdmin}, "u2"))
	assert.False(t, CanViewUserAssignments(Caller{}, ""))
}

func TestCanDeleteReview(t *testing.T) {
	r := models.Review{UserID: "u1"}
	assert.True(t, CanDeleteReview(Caller{SubjectID: "u1", Role: models.RoleUser}, r))
	assert.False(t, CanDeleteReview(Caller{SubjectID: "adm", Role: models.RoleAdmin}, r))
}

func TestCallerContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithCaller(context.Background(), Caller{SubjectID: "u1", Role: "user"})
	c, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", c.SubjectID)
}
