package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/library-backend/internal/access"
	"github.com/baharkarakas/library-backend/internal/apperr"
	"github.com/baharkarakas/library-backend/internal/auth"
	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
	"github.com/baharkarakas/library-backend/internal/repository/memory"
)

type accounts struct {
	ctx   context.Context
	repos repo.Repositories
	users *UserService
	auth  *AuthService
	tm    *auth.TokenManager
}

func newAccounts(t *testing.T, allowAdminSignup bool) *accounts {
	t.Helper()
	r := memory.NewRepositories(memory.NewStore())
	tm := auth.NewTokenManager("access-secret", "refresh-secret", "library-test", time.Minute, time.Hour)
	us := NewUserService(r.Users, discardLogger())
	return &accounts{
		ctx:   context.Background(),
		repos: r,
		users: us,
		auth:  NewAuthService(r.Users, us, tm, allowAdminSignup),
		tm:    tm,
	}
}

func alice() CreateUserInput {
	return CreateUserInput{Username: "alice", Email: "Alice@Example.com", Phone: "+1-555-0100", Password: "correct-horse"}
}

func TestRegister_PendingUntilApproved(t *testing.T) {
	a := newAccounts(t, false)

	u, err := a.users.Register(a.ctx, alice())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.False(t, u.CreatedByAdmin)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	_, err = a.auth.Login(a.ctx, "alice@example.com", "correct-horse", models.RoleUser)
	assert.ErrorIs(t, err, apperr.ErrAccountPending)

	_, err = a.users.Approve(a.ctx, u.ID)
	require.NoError(t, err)

	s, err := a.auth.Login(a.ctx, "alice@example.com", "correct-horse", models.RoleUser)
	require.NoError(t, err)
	claims, err := a.tm.ParseAccess(s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestLogin_Rejections(t *testing.T) {
	a := newAccounts(t, false)
	u, err := a.users.CreateByAdmin(a.ctx, alice())
	require.NoError(t, err)

	_, err = a.auth.Login(a.ctx, "alice@example.com", "wrong-password", models.RoleUser)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = a.auth.Login(a.ctx, "nobody@example.com", "correct-horse", models.RoleUser)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = a.auth.Login(a.ctx, "alice@example.com", "correct-horse", models.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	inactive := false
	_, err = a.users.Update(a.ctx, u.ID, UserUpdate{Active: &inactive})
	require.NoError(t, err)
	_, err = a.auth.Login(a.ctx, "alice@example.com", "correct-horse", models.RoleUser)
	assert.ErrorIs(t, err, apperr.ErrAccountInactive)
}

func TestCreateUser_Conflicts(t *testing.T) {
	a := newAccounts(t, false)
	_, err := a.users.CreateByAdmin(a.ctx, alice())
	require.NoError(t, err)

	dupEmail := alice()
	dupEmail.Phone = "+1-555-0199"
	_, err = a.users.CreateByAdmin(a.ctx, dupEmail)
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)

	dupPhone := alice()
	dupPhone.Email = "other@example.com"
	_, err = a.users.CreateByAdmin(a.ctx, dupPhone)
	assert.ErrorIs(t, err, apperr.ErrPhoneTaken)

	short := alice()
	short.Email, short.Phone, short.Password = "x@example.com", "1", "short"
	_, err = a.users.CreateByAdmin(a.ctx, short)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateUser_KeepsPasswordUnlessGiven(t *testing.T) {
	a := newAccounts(t, false)
	u, err := a.users.CreateByAdmin(a.ctx, alice())
	require.NoError(t, err)

	name := "alice2"
	_, err = a.users.Update(a.ctx, u.ID, UserUpdate{Username: &name})
	require.NoError(t, err)
	_, err = a.auth.Login(a.ctx, "alice@example.com", "correct-horse", models.RoleUser)
	require.NoError(t, err)

	pw := "battery-staple"
	_, err = a.users.Update(a.ctx, u.ID, UserUpdate{Password: &pw})
	require.NoError(t, err)
	_, err = a.auth.Login(a.ctx, "alice@example.com", "battery-staple", models.RoleUser)
	require.NoError(t, err)
}

func TestAdminSignup(t *testing.T) {
	a := newAccounts(t, false)
	in := CreateUserInput{Username: "root", Email: "root@example.com", Phone: "+1-555-0001", Password: "s3cret-pass"}

	s, err := a.auth.AdminSignup(a.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, s.User.Role)

	in.Email, in.Phone = "second@example.com", "+1-555-0002"
	_, err = a.auth.AdminSignup(a.ctx, in)
	assert.ErrorIs(t, err, apperr.ErrAdminSignupClosed)

	open := newAccounts(t, true)
	_, err = open.auth.AdminSignup(open.ctx, in)
	require.NoError(t, err)
	in.Email, in.Phone = "third@example.com", "+1-555-0003"
	_, err = open.auth.AdminSignup(open.ctx, in)
	require.NoError(t, err)
}

func TestRefresh(t *testing.T) {
	a := newAccounts(t, false)
	u, err := a.users.CreateByAdmin(a.ctx, alice())
	require.NoError(t, err)
	s, err := a.auth.Login(a.ctx, "alice@example.com", "correct-horse", models.RoleUser)
	require.NoError(t, err)

	next, err := a.auth.Refresh(a.ctx, s.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, next.User.ID)

	_, err = a.auth.Refresh(a.ctx, s.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	require.NoError(t, a.users.Delete(a.ctx, u.ID))
	_, err = a.auth.Refresh(a.ctx, s.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	a := newAccounts(t, false)
	require.NoError(t, a.users.EnsureAdmin(a.ctx, "boss@example.com", "+1-555-0199", "bootstrap-pass"))
	require.NoError(t, a.users.EnsureAdmin(a.ctx, "boss@example.com", "+1-555-0199", "bootstrap-pass"))

	n, err := a.repos.Users.CountByRole(a.ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	boss, err := a.repos.Users.GetByEmail(a.ctx, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, "+1-555-0199", boss.Phone)

	_, err = a.auth.Login(a.ctx, "boss@example.com", "bootstrap-pass", models.RoleAdmin)
	require.NoError(t, err)
}

func TestEnsureAdmin_RequiresPhone(t *testing.T) {
	a := newAccounts(t, false)
	err := a.users.EnsureAdmin(a.ctx, "boss@example.com", "", "bootstrap-pass")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	n, err := a.repos.Users.CountByRole(a.ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReviews(t *testing.T) {
	a := newAccounts(t, false)
	rs := NewReviewService(a.repos)
	books := NewBookService(a.repos.Books)

	b, err := books.Create(a.ctx, models.Book{Title: "Dune", Author: "Frank Herbert", Language: "en", Price: 9.5, Quantity: 1})
	require.NoError(t, err)
	u, err := a.users.CreateByAdmin(a.ctx, alice())
	require.NoError(t, err)
	author := access.Caller{SubjectID: u.ID, Role: models.RoleUser}
	other := access.Caller{SubjectID: "22222222-2222-2222-2222-222222222222", Role: models.RoleUser}

	rv, err := rs.Add(a.ctx, author, b.ID, "  great read ")
	require.NoError(t, err)
	assert.Equal(t, "great read", rv.Comment)

	_, err = rs.Add(a.ctx, author, b.ID, "again")
	assert.ErrorIs(t, err, apperr.ErrDuplicateReview)

	_, err = rs.Add(a.ctx, author, "33333333-3333-3333-3333-333333333333", "ghost")
	assert.ErrorIs(t, err, apperr.ErrBookNotFound)

	_, err = rs.Vote(a.ctx, other, rv.ID, models.VoteLike)
	require.NoError(t, err)
	voted, err := rs.Vote(a.ctx, other, rv.ID, models.VoteDislike)
	require.NoError(t, err)
	assert.Empty(t, voted.Likes)
	assert.Equal(t, []string{other.SubjectID}, voted.Dislikes)

	list, err := rs.ListByBook(a.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Author.Username)
	assert.Equal(t, 0, list[0].LikeCount)
	assert.Equal(t, 1, list[0].DislikeCount)

	assert.ErrorIs(t, rs.Delete(a.ctx, other, rv.ID), apperr.ErrForbidden)
	require.NoError(t, rs.Delete(a.ctx, author, rv.ID))
	assert.ErrorIs(t, rs.Delete(a.ctx, author, rv.ID), apperr.ErrReviewNotFound)
}

func TestBookService_Update(t *testing.T) {
	a := newAccounts(t, false)
	books := NewBookService(a.repos.Books)
	b, err := books.Create(a.ctx, models.Book{Title: "Dune", Author: "Frank Herbert", Language: "en", Price: 9.5, Quantity: 1})
	require.NoError(t, err)

	qty := 4
	got, err := books.Update(a.ctx, b.ID, BookUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	assert.Equal(t, "Dune", got.Title)

	neg := -1
	_, err = books.Update(a.ctx, b.ID, BookUpdate{Quantity: &neg})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = books.Get(a.ctx, "33333333-3333-3333-3333-333333333333")
	assert.ErrorIs(t, err, apperr.ErrBookNotFound)
}
