package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/library-backend/internal/access"
	"github.com/baharkarakas/library-backend/internal/apperr"
	"github.com/baharkarakas/library-backend/internal/duedate"
	"github.com/baharkarakas/library-backend/internal/models"
	"github.com/baharkarakas/library-backend/internal/notify"
	repo "github.com/baharkarakas/library-backend/internal/repository"
	"github.com/baharkarakas/library-backend/internal/repository/memory"
	"github.com/baharkarakas/library-backend/internal/worker"
)

type mockGateway struct{ mock.Mock }

func (m *mockGateway) SendReminder(ctx context.Context, r notify.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fixture struct {
	ctx   context.Context
	repos repo.Repositories
	gw    *mockGateway
	svc   *AssignmentService
	admin access.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, memory.NewRepositories(memory.NewStore()))
}

func newFixtureWith(t *testing.T, r repo.Repositories) *fixture {
	t.Helper()
	wp := worker.NewPool(2)
	t.Cleanup(wp.Stop)
	gw := &mockGateway{}
	svc := NewAssignmentService(r, gw, duedate.New(time.UTC, duedate.DefaultDueSoonDays), wp, discardLogger())
	svc.now = func() time.Time { return fixedNow }
	return &fixture{
		ctx:   context.Background(),
		repos: r,
		gw:    gw,
		svc:   svc,
		admin: access.Caller{SubjectID: "00000000-0000-0000-0000-00000000000a", Role: models.RoleAdmin},
	}
}

func (f *fixture) book(t *testing.T, qty int) models.Book {
	t.Helper()
	b, err := f.repos.Books.Create(f.ctx, models.Book{Title: "Dune", Author: "Frank Herbert", Language: "en", Price: 10, Quantity: qty})
	require.NoError(t, err)
	return b
}

func (f *fixture) user(t *testing.T, name string, active bool) models.User {
	t.Helper()
	u, err := f.repos.Users.Create(f.ctx, models.User{
		Username:       name,
		Email:          name + "@example.com",
		Phone:          "+1-555-" + name,
		Role:           models.RoleUser,
		Active:         active,
		CreatedByAdmin: true,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) quantity(t *testing.T, bookID string) int {
	t.Helper()
	b, err := f.repos.Books.GetByID(f.ctx, bookID)
	require.NoError(t, err)
	return b.Quantity
}

func (f *fixture) checkout(userID, bookID string) (models.Assignment, error) {
	return f.svc.Checkout(f.ctx, CheckoutInput{UserID: userID, BookID: bookID, DaysAllowed: 7, Rent: 20})
}

func TestCheckoutReturn_Lifecycle(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.user(t, "alice", true)
	v := f.user(t, "bob", true)

	a, err := f.checkout(u.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, a.Returned)
	assert.Nil(t, a.ReturnDate)
	assert.True(t, a.DueDate.Equal(fixedNow.AddDate(0, 0, 7)))
	assert.Equal(t, 0, f.quantity(t, b.ID))

	_, err = f.checkout(v.ID, b.ID)
	assert.ErrorIs(t, err, apperr.ErrOutOfStock)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 0, f.quantity(t, b.ID))

	ret, err := f.svc.Return(f.ctx, a.ID, f.admin.SubjectID)
	require.NoError(t, err)
	assert.True(t, ret.Returned)
	require.NotNil(t, ret.ReturnDate)
	assert.Equal(t, 1, f.quantity(t, b.ID))

	_, err = f.svc.Return(f.ctx, a.ID, f.admin.SubjectID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyReturned)
	assert.Equal(t, 1, f.quantity(t, b.ID))
}

func TestCheckout_OutOfStockCreatesNothing(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 0)
	u := f.user(t, "alice", true)

	_, err := f.checkout(u.ID, b.ID)
	require.ErrorIs(t, err, apperr.ErrOutOfStock)

	all, err := f.repos.Assignments.List(f.ctx, models.AssignmentFilter{Status: models.FilterAll})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 0, f.quantity(t, b.ID))
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 3)
	u := f.user(t, "alice", true)
	past := fixedNow.AddDate(0, 0, -1)
	future := fixedNow.AddDate(0, 0, 5)
	tooFar := fixedNow.AddDate(0, 0, maxLoanDays+1)

	cases := []struct {
		name string
		in   CheckoutInput
	}{
		{"bad user id", CheckoutInput{UserID: "nope", BookID: b.ID, DaysAllowed: 7, Rent: 1}},
		{"bad book id", CheckoutInput{UserID: u.ID, BookID: "nope", DaysAllowed: 7, Rent: 1}},
		{"zero rent", CheckoutInput{UserID: u.ID, BookID: b.ID, DaysAllowed: 7}},
		{"zero days", CheckoutInput{UserID: u.ID, BookID: b.ID, Rent: 1}},
		{"negative days", CheckoutInput{UserID: u.ID, BookID: b.ID, DaysAllowed: -2, Rent: 1}},
		{"due date in the past", CheckoutInput{UserID: u.ID, BookID: b.ID, DueDate: &past, Rent: 1}},
		{"both days and due date", CheckoutInput{UserID: u.ID, BookID: b.ID, DaysAllowed: 3, DueDate: &future, Rent: 1}},
		{"days beyond loan limit", CheckoutInput{UserID: u.ID, BookID: b.ID, DaysAllowed: maxLoanDays + 1, Rent: 1}},
		{"due date beyond loan limit", CheckoutInput{UserID: u.ID, BookID: b.ID, DueDate: &tooFar, Rent: 1}},
		{"sub-cent rent", CheckoutInput{UserID: u.ID, BookID: b.ID, DaysAllowed: 7, Rent: 0.004}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Checkout(f.ctx, tc.in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
	assert.Equal(t, 3, f.quantity(t, b.ID))
}

func TestCheckout_ExplicitDueDate(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.user(t, "alice", true)
	due := fixedNow.AddDate(0, 0, 14)

	a, err := f.svc.Checkout(f.ctx, CheckoutInput{UserID: u.ID, BookID: b.ID, DueDate: &due, Rent: 5})
	require.NoError(t, err)
	assert.True(t, a.DueDate.Equal(due))
}

func TestCheckout_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.user(t, "alice", true)

	_, err := f.checkout("11111111-1111-1111-1111-111111111111", b.ID)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = f.checkout(u.ID, "11111111-1111-1111-1111-111111111111")
	assert.ErrorIs(t, err, apperr.ErrBookNotFound)
	assert.Equal(t, 1, f.quantity(t, b.ID))
}

func TestCheckout_InactiveBorrower(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.user(t, "alice", false)

	_, err := f.checkout(u.ID, b.ID)
	assert.ErrorIs(t, err, apperr.ErrBorrowerInactive)
	assert.Equal(t, 1, f.quantity(t, b.ID))
}

func TestCheckout_ConcurrentLastCopy(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.user(t, "alice", true)
	v := f.user(t, "bob", true)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{u.ID, v.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.checkout(id, b.ID)
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrOutOfStock):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 0, f.quantity(t, b.ID))
}

// checkoutBeforeWrite lands a checkout right before any book lookup or
// edit reaches the store.
type checkoutBeforeWrite struct {
	repo.Books
	once sync.Once
	run  func()
}

func (b *checkoutBeforeWrite) GetByID(ctx context.Context, id string) (models.Book, error) {
	b.once.Do(b.run)
	return b.Books.GetByID(ctx, id)
}

func (b *checkoutBeforeWrite) Update(ctx context.Context, id string, p models.BookPatch) (models.Book, error) {
	b.once.Do(b.run)
	return b.Books.Update(ctx, id, p)
}

func TestBookUpdate_KeepsConcurrentCheckout(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.user(t, "alice", true)
	v := f.user(t, "bob", true)

	books := &checkoutBeforeWrite{Books: f.repos.Books}
	books.run = func() {
		_, err := f.checkout(u.ID, b.ID)
		require.NoError(t, err)
	}

	title := "Dune Messiah"
	got, err := NewBookService(books).Update(f.ctx, b.ID, BookUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, 0, f.quantity(t, b.ID))

	_, err = f.checkout(v.ID, b.ID)
	assert.ErrorIs(t, err, apperr.ErrOutOfStock)
}

// failingAssignments refuses to write loan records.
type failingAssignments struct{ repo.Assignments }

func (failingAssignments) Create(context.Context, models.Assignment) (models.Assignment, error) {
	return models.Assignment{}, errors.New("disk full")
}

func TestCheckout_CreateFailureRestoresQuantity(t *testing.T) {
	r := memory.NewRepositories(memory.NewStore())
	r.Assignments = failingAssignments{r.Assignments}
	f := newFixtureWith(t, r)
	b := f.book(t, 2)
	u := f.user(t, "alice", true)

	_, err := f.checkout(u.ID, b.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, 2, f.quantity(t, b.ID))
}

func TestReturn_Unknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Return(f.ctx, "11111111-1111-1111-1111-111111111111", "")
	assert.ErrorIs(t, err, apperr.ErrAssignmentNotFound)

	_, err = f.svc.Return(f.ctx, "short", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestReturn_BookDeletedWhileOnLoan(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.user(t, "alice", true)
	a, err := f.checkout(u.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.repos.Books.Delete(f.ctx, b.ID))

	ret, err := f.svc.Return(f.ctx, a.ID, "")
	require.NoError(t, err)
	assert.True(t, ret.Returned)

	view, err := f.svc.Get(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Unknown, view.Book.Title)
	assert.Equal(t, "alice", view.User.Username)
	assert.Equal(t, models.StatusReturned, view.Status)
}

func TestList_FiltersAndIsolation(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 5)
	u := f.user(t, "alice", true)
	v := f.user(t, "bob", true)

	a1, err := f.checkout(u.ID, b.ID)
	require.NoError(t, err)
	_, err = f.checkout(v.ID, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Return(f.ctx, a1.ID, "")
	require.NoError(t, err)

	all, err := f.svc.List(f.ctx, f.admin, models.AssignmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.svc.List(f.ctx, f.admin, models.AssignmentFilter{Status: models.FilterActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, v.ID, active[0].UserID)
	assert.Equal(t, 7, active[0].DaysRemaining)
	assert.Equal(t, models.StatusOK, active[0].Status)
	assert.Equal(t, "Dune", active[0].Book.Title)

	returned, err := f.svc.List(f.ctx, f.admin, models.AssignmentFilter{Status: models.FilterReturned})
	require.NoError(t, err)
	require.Len(t, returned, 1)
	assert.Equal(t, a1.ID, returned[0].ID)

	alice := access.Caller{SubjectID: u.ID, Role: models.RoleUser}
	mine, err := f.svc.List(f.ctx, alice, models.AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, u.ID, mine[0].UserID)

	_, err = f.svc.List(f.ctx, alice, models.AssignmentFilter{UserID: v.ID})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.List(f.ctx, f.admin, models.AssignmentFilter{Status: "lost"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestList_UnknownBorrower(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.user(t, "alice", true)
	_, err := f.checkout(u.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.repos.Users.Delete(f.ctx, u.ID))

	list, err := f.svc.List(f.ctx, f.admin, models.AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.Unknown, list[0].User.Username)
	assert.Equal(t, "Dune", list[0].Book.Title)
}

func TestSendReminder(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 2)
	u := f.user(t, "alice", true)
	a, err := f.checkout(u.ID, b.ID)
	require.NoError(t, err)

	f.gw.On("SendReminder", mock.Anything, mock.MatchedBy(func(r notify.Reminder) bool {
		return r.AssignmentID == a.ID && r.To == "alice@example.com" && r.BookTitle == "Dune"
	})).Return(nil).Once()

	sum, err := f.svc.SendReminder(f.ctx, a.ID, f.admin.SubjectID)
	require.NoError(t, err)
	assert.Equal(t, "alice", sum.User)
	assert.Equal(t, "March 17, 2024", sum.DueDate)
	assert.Equal(t, 7, sum.DaysRemaining)
	f.gw.AssertExpectations(t)

	got, err := f.repos.Assignments.GetByID(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestSendReminder_Errors(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 3)
	u := f.user(t, "alice", true)

	_, err := f.svc.SendReminder(f.ctx, "11111111-1111-1111-1111-111111111111", "")
	assert.ErrorIs(t, err, apperr.ErrAssignmentNotFound)

	returned, err := f.checkout(u.ID, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Return(f.ctx, returned.ID, "")
	require.NoError(t, err)
	_, err = f.svc.SendReminder(f.ctx, returned.ID, "")
	assert.ErrorIs(t, err, apperr.ErrAlreadyReturned)

	gone, err := f.checkout(u.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.repos.Users.Delete(f.ctx, u.ID))
	_, err = f.svc.SendReminder(f.ctx, gone.ID, "")
	assert.ErrorIs(t, err, apperr.ErrMissingContact)

	f.gw.AssertNotCalled(t, "SendReminder", mock.Anything, mock.Anything)
}

func TestSendReminder_GatewayFailure(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.user(t, "alice", true)
	a, err := f.checkout(u.ID, b.ID)
	require.NoError(t, err)

	f.gw.On("SendReminder", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	_, err = f.svc.SendReminder(f.ctx, a.ID, "")
	assert.ErrorIs(t, err, apperr.ErrNotificationFailed)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "smtp down")
}

func TestSendDueReminders(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 5)
	u := f.user(t, "alice", true)
	v := f.user(t, "bob", true)

	soon := fixedNow.AddDate(0, 0, 2)
	dueSoon, err := f.svc.Checkout(f.ctx, CheckoutInput{UserID: u.ID, BookID: b.ID, DueDate: &soon, Rent: 1})
	require.NoError(t, err)
	_, err = f.checkout(u.ID, b.ID) // due in 7 days, not reminded
	require.NoError(t, err)
	failing, err := f.svc.Checkout(f.ctx, CheckoutInput{UserID: v.ID, BookID: b.ID, DueDate: &fixedNow, Rent: 1})
	require.NoError(t, err)

	f.gw.On("SendReminder", mock.Anything, mock.MatchedBy(func(r notify.Reminder) bool {
		return r.AssignmentID == dueSoon.ID
	})).Return(nil).Once()
	f.gw.On("SendReminder", mock.Anything, mock.MatchedBy(func(r notify.Reminder) bool {
		return r.AssignmentID == failing.ID
	})).Return(errors.New("broker unavailable")).Once()

	res, err := f.svc.SendDueReminders(f.ctx, f.admin.SubjectID)
	require.NoError(t, err)
	require.Len(t, res.Sent, 1)
	assert.Equal(t, dueSoon.ID, res.Sent[0].AssignmentID)
	assert.Equal(t, 2, res.Sent[0].DaysRemaining)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, failing.ID, res.Failed[0].AssignmentID)
	assert.Equal(t, "notification_failed", res.Failed[0].Code)
	assert.Equal(t, "reminder could not be delivered", res.Failed[0].Error)
	assert.NotContains(t, res.Failed[0].Error, "broker")
	f.gw.AssertExpectations(t)
}
