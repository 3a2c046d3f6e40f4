package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/library-backend/internal/access"
	"github.com/baharkarakas/library-backend/internal/apperr"
	"github.com/baharkarakas/library-backend/internal/duedate"
	"github.com/baharkarakas/library-backend/internal/logger"
	"github.com/baharkarakas/library-backend/internal/metrics"
	"github.com/baharkarakas/library-backend/internal/models"
	"github.com/baharkarakas/library-backend/internal/notify"
	repo "github.com/baharkarakas/library-backend/internal/repository"
	"github.com/baharkarakas/library-backend/internal/worker"
)

// AssignmentService is the borrowing lifecycle: checkout, return, queries
// and reminders. Role checks happen in the HTTP layer before these calls.
type AssignmentService struct {
	books    repo.Books
	users    repo.Users
	asg      repo.Assignments
	audit    repo.AuditLogs
	tx       repo.TxRunner
	notifier notify.Gateway
	cal      duedate.Calendar
	wp       *worker.Pool
	log      *slog.Logger
	now      func() time.Time
}

func NewAssignmentService(r repo.Repositories, n notify.Gateway, cal duedate.Calendar, wp *worker.Pool, log *slog.Logger) *AssignmentService {
	if log == nil {
		log = slog.Default()
	}
	return &AssignmentService{
		books:    r.Books,
		users:    r.Users,
		asg:      r.Assignments,
		audit:    r.AuditLogs,
		tx:       r.Tx,
		notifier: n,
		cal:      cal,
		wp:       wp,
		log:      log,
		now:      time.Now,
	}
}

// ----------------- Helpers -----------------

func (s *AssignmentService) logger(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.log)
}

func (s *AssignmentService) record(ctx context.Context, actorID, assignmentID, action string, details map[string]any) {
	l := models.AuditLog{
		EntityType: "assignment",
		EntityID:   &assignmentID,
		Action:     action,
		Details:    details,
	}
	if actorID != "" {
		l.ActorID = &actorID
	}
	if err := s.audit.Create(ctx, l); err != nil {
		s.logger(ctx).Warn("audit log write failed", "assignment_id", assignmentID, "action", action, "err", err)
	}
}

func (s *AssignmentService) fail(err error) error {
	metrics.AssignmentFailures.WithLabelValues(apperr.CodeOf(err)).Inc()
	return err
}

// ----------------- CHECKOUT -----------------

const (
	// maxLoanDays keeps due dates well inside the storable timestamp range.
	maxLoanDays = 3650
	// minRent is the smallest amount the rent column can hold.
	minRent = 0.01
)

type CheckoutInput struct {
	UserID      string
	BookID      string
	DaysAllowed int
	DueDate     *time.Time
	Rent        float64
	ActorID     string
}

func (s *AssignmentService) validateCheckout(in CheckoutInput, now time.Time) (time.Time, error) {
	if err := validateID("userId", in.UserID); err != nil {
		return time.Time{}, err
	}
	if err := validateID("bookId", in.BookID); err != nil {
		return time.Time{}, err
	}
	if in.Rent < minRent {
		return time.Time{}, apperr.Validationf("rent must be at least %.2f", minRent)
	}
	switch {
	case in.DueDate != nil && in.DaysAllowed != 0:
		return time.Time{}, apperr.Validation("provide either daysAllowed or dueDate, not both", nil)
	case in.DueDate != nil:
		if s.cal.BeforeToday(*in.DueDate, now) {
			return time.Time{}, apperr.Validation("dueDate must not be in the past", nil)
		}
		if in.DueDate.After(s.cal.DueDate(now, maxLoanDays)) {
			return time.Time{}, apperr.Validationf("dueDate must be within %d days", maxLoanDays)
		}
		return *in.DueDate, nil
	case in.DaysAllowed > maxLoanDays:
		return time.Time{}, apperr.Validationf("daysAllowed must be at most %d", maxLoanDays)
	case in.DaysAllowed > 0:
		return s.cal.DueDate(now, in.DaysAllowed), nil
	default:
		return time.Time{}, apperr.Validation("daysAllowed must be > 0", nil)
	}
}

// Checkout takes one copy out of inventory and records the loan as a
// single unit of work: if the loan record cannot be written, the
// decrement is rolled back with it.
func (s *AssignmentService) Checkout(ctx context.Context, in CheckoutInput) (models.Assignment, error) {
	now := s.now().UTC()
	due, err := s.validateCheckout(in, now)
	if err != nil {
		return models.Assignment{}, s.fail(err)
	}

	var out models.Assignment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, in.UserID)
		if err != nil {
			return notFound(err, apperr.ErrUserNotFound)
		}
		if !u.Active {
			return apperr.ErrBorrowerInactive
		}

		// conditional decrement: refuses to go below zero
		if _, err := s.books.AdjustQuantity(ctx, in.BookID, -1); err != nil {
			switch {
			case errors.Is(err, repo.ErrOutOfStock):
				return apperr.ErrOutOfStock
			default:
				return notFound(err, apperr.ErrBookNotFound)
			}
		}

		a, err := s.asg.Create(ctx, models.Assignment{
			UserID:     in.UserID,
			BookID:     in.BookID,
			IssuedDate: now,
			DueDate:    due.UTC(),
			Rent:       in.Rent,
		})
		if err != nil {
			// returning the error rolls the decrement back with the unit of work
			return fmt.Errorf("create assignment: %w", err)
		}

		out = a
		return nil
	})
	if err != nil {
		return models.Assignment{}, s.fail(err)
	}

	s.record(ctx, in.ActorID, out.ID, "checkout", map[string]any{
		"user_id":  out.UserID,
		"book_id":  out.BookID,
		"due_date": out.DueDate,
		"rent":     out.Rent,
	})

	metrics.CheckoutsTotal.Inc()
	s.logger(ctx).Info("book checked out", "assignment_id", out.ID, "book_id", out.BookID, "user_id", out.UserID)
	return out, nil
}

// ----------------- RETURN -----------------

// Return closes the loan and restores one copy. The returned flag is
// flipped first and only once, so a retried Return can never add a
// second copy back.
func (s *AssignmentService) Return(ctx context.Context, assignmentID, actorID string) (models.Assignment, error) {
	if err := validateID("assignmentId", assignmentID); err != nil {
		return models.Assignment{}, s.fail(err)
	}

	var out models.Assignment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.asg.MarkReturned(ctx, assignmentID, s.now().UTC())
		if err != nil {
			if errors.Is(err, repo.ErrAlreadyReturned) {
				return apperr.ErrAlreadyReturned
			}
			return notFound(err, apperr.ErrAssignmentNotFound)
		}

		if _, err := s.books.AdjustQuantity(ctx, a.BookID, +1); err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("restore inventory: %w", err)
			}
			// the title was removed from the catalog while on loan
			s.logger(ctx).Warn("returned book no longer in catalog", "book_id", a.BookID, "assignment_id", a.ID)
		}

		out = a
		return nil
	})
	if err != nil {
		return models.Assignment{}, s.fail(err)
	}

	s.record(ctx, actorID, out.ID, "return", map[string]any{"book_id": out.BookID})

	metrics.ReturnsTotal.Inc()
	s.logger(ctx).Info("book returned", "assignment_id", out.ID, "book_id", out.BookID)
	return out, nil
}

// ----------------- Queries -----------------

// Get returns one loan with references resolved. Callers decide
// visibility with access.CanAccessAssignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (models.AssignmentView, error) {
	if err := validateID("assignmentId", id); err != nil {
		return models.AssignmentView{}, err
	}
	a, err := s.asg.GetByID(ctx, id)
	if err != nil {
		return models.AssignmentView{}, notFound(err, apperr.ErrAssignmentNotFound)
	}
	views, err := s.resolve(ctx, []models.Assignment{a})
	if err != nil {
		return models.AssignmentView{}, err
	}
	return views[0], nil
}

// List returns loans newest first. A non-admin caller only ever sees their
// own loans, whatever filter was requested.
func (s *AssignmentService) List(ctx context.Context, caller access.Caller, f models.AssignmentFilter) ([]models.AssignmentView, error) {
	if f.Status == "" {
		f.Status = models.FilterAll
	}
	if !f.Status.Valid() {
		return nil, apperr.Validationf("status must be one of all, active, returned")
	}
	if f.UserID != "" {
		if err := validateID("userId", f.UserID); err != nil {
			return nil, err
		}
	}
	if !caller.IsAdmin() {
		if f.UserID != "" && f.UserID != caller.SubjectID {
			return nil, apperr.ErrForbidden
		}
		f.UserID = caller.SubjectID
	}

	list, err := s.asg.List(ctx, f)
	if err != nil {
		return nil, err
	}
	visible := list[:0:0]
	for _, a := range list {
		if access.CanAccessAssignment(caller, a) {
			visible = append(visible, a)
		}
	}
	return s.resolve(ctx, visible)
}

// resolve joins books and borrowers in two batched reads. A reference that
// no longer resolves is shown as Unknown.
func (s *AssignmentService) resolve(ctx context.Context, list []models.Assignment) ([]models.AssignmentView, error) {
	bookIDs := make([]string, 0, len(list))
	userIDs := make([]string, 0, len(list))
	seenB, seenU := map[string]bool{}, map[string]bool{}
	for _, a := range list {
		if !seenB[a.BookID] {
			seenB[a.BookID] = true
			bookIDs = append(bookIDs, a.BookID)
		}
		if !seenU[a.UserID] {
			seenU[a.UserID] = true
			userIDs = append(userIDs, a.UserID)
		}
	}

	books, err := s.books.GetMany(ctx, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve books: %w", err)
	}
	users, err := s.users.GetMany(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}

	today := s.now()
	out := make([]models.AssignmentView, 0, len(list))
	for _, a := range list {
		out = append(out, s.view(a, books, users, today))
	}
	return out, nil
}

func (s *AssignmentService) view(a models.Assignment, books map[string]models.Book, users map[string]models.User, today time.Time) models.AssignmentView {
	v := models.AssignmentView{
		Assignment: a,
		Book:       models.BookRef{ID: a.BookID, Title: models.Unknown, Author: models.Unknown},
		User:       models.UserRef{ID: a.UserID, Username: models.Unknown},
	}
	if b, ok := books[a.BookID]; ok {
		v.Book.Title, v.Book.Author = b.Title, b.Author
	}
	if u, ok := users[a.UserID]; ok {
		v.User.Username, v.User.Email = u.Username, u.Email
	}

	if a.Returned && a.ReturnDate != nil {
		// days the copy came back ahead of (or after) its due date
		v.DaysRemaining = s.cal.DaysRemaining(a.DueDate, *a.ReturnDate)
		v.Status = models.StatusReturned
		return v
	}
	v.DaysRemaining = s.cal.DaysRemaining(a.DueDate, today)
	v.Status = s.cal.Status(v.DaysRemaining)
	return v
}

// ----------------- REMINDERS -----------------

type ReminderSummary struct {
	AssignmentID  string `json:"assignment_id"`
	User          string `json:"user"`
	Email         string `json:"email"`
	Book          string `json:"book"`
	DueDate       string `json:"due_date"`
	DaysRemaining int    `json:"days_remaining"`
}

// SendReminder notifies the borrower of an open loan. It never changes
// the loan itself.
func (s *AssignmentService) SendReminder(ctx context.Context, assignmentID, actorID string) (ReminderSummary, error) {
	if err := validateID("assignmentId", assignmentID); err != nil {
		return ReminderSummary{}, err
	}
	a, err := s.asg.GetByID(ctx, assignmentID)
	if err != nil {
		return ReminderSummary{}, notFound(err, apperr.ErrAssignmentNotFound)
	}
	if a.Returned {
		return ReminderSummary{}, apperr.ErrAlreadyReturned
	}

	u, err := s.users.GetByID(ctx, a.UserID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return ReminderSummary{}, err
	}
	if err != nil || u.Email == "" {
		return ReminderSummary{}, apperr.ErrMissingContact
	}

	title := models.Unknown
	if b, err := s.books.GetByID(ctx, a.BookID); err == nil {
		title = b.Title
	} else if !errors.Is(err, repo.ErrNotFound) {
		return ReminderSummary{}, err
	}

	sum := ReminderSummary{
		AssignmentID:  a.ID,
		User:          u.Username,
		Email:         u.Email,
		Book:          title,
		DueDate:       s.cal.Format(a.DueDate),
		DaysRemaining: s.cal.DaysRemaining(a.DueDate, s.now()),
	}
	err = s.notifier.SendReminder(ctx, notify.Reminder{
		AssignmentID:  sum.AssignmentID,
		To:            sum.Email,
		Name:          sum.User,
		BookTitle:     sum.Book,
		DueDate:       sum.DueDate,
		DaysRemaining: sum.DaysRemaining,
	})
	if err != nil {
		metrics.RemindersTotal.WithLabelValues("failed").Inc()
		s.logger(ctx).Error("reminder delivery failed", "assignment_id", a.ID, "err", err)
		return sum, apperr.Wrap(apperr.ErrNotificationFailed, err)
	}

	metrics.RemindersTotal.WithLabelValues("sent").Inc()
	s.record(ctx, actorID, a.ID, "reminder_sent", map[string]any{"to": u.Email})
	return sum, nil
}

type ReminderFailure struct {
	AssignmentID string `json:"assignment_id"`
	Code         string `json:"code"`
	Error        string `json:"error"`
}

type BulkReminderResult struct {
	Sent   []ReminderSummary `json:"sent"`
	Failed []ReminderFailure `json:"failed"`
}

// SendDueReminders reminds every borrower whose open loan is overdue or
// due soon. Deliveries run on the worker pool; the call returns once all
// of them finished.
func (s *AssignmentService) SendDueReminders(ctx context.Context, actorID string) (BulkReminderResult, error) {
	open, err := s.asg.List(ctx, models.AssignmentFilter{Status: models.FilterActive})
	if err != nil {
		return BulkReminderResult{}, err
	}

	today := s.now()
	var due []models.Assignment
	for _, a := range open {
		if s.cal.Status(s.cal.DaysRemaining(a.DueDate, today)) != models.StatusOK {
			due = append(due, a)
		}
	}

	idx := make([]int, len(due))
	for i := range idx {
		idx[i] = i
	}
	summaries := make([]ReminderSummary, len(due))
	errs := worker.Run(ctx, s.wp, idx, func(ctx context.Context, i int) error {
		sum, err := s.SendReminder(ctx, due[i].ID, actorID)
		summaries[i] = sum
		return err
	})

	res := BulkReminderResult{Sent: []ReminderSummary{}, Failed: []ReminderFailure{}}
	for i, err := range errs {
		if err != nil {
			res.Failed = append(res.Failed, ReminderFailure{AssignmentID: due[i].ID, Code: apperr.CodeOf(err), Error: apperr.MessageOf(err)})
			continue
		}
		res.Sent = append(res.Sent, summaries[i])
	}
	s.logger(ctx).Info("due reminders sent", "sent", len(res.Sent), "failed", len(res.Failed))
	return res, nil
}
