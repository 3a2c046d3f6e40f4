package repository

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/library-backend/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("unique constraint violated")
	ErrOutOfStock      = errors.New("quantity would become negative")
	ErrAlreadyReturned = errors.New("assignment already returned")
)

// ConflictError names the unique field that collided.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return "duplicate " + e.Field }
func (e *ConflictError) Unwrap() error { return ErrConflict }

type Books interface {
	Create(ctx context.Context, b models.Book) (models.Book, error)
	GetByID(ctx context.Context, id string) (models.Book, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.Book, error)
	List(ctx context.Context, f models.BookFilter) ([]models.Book, error)
	// Update applies p in one step; fields left nil keep their stored value.
	Update(ctx context.Context, id string, p models.BookPatch) (models.Book, error)
	Delete(ctx context.Context, id string) error

	// AdjustQuantity applies delta in one conditional step; a result below
	// zero is refused with ErrOutOfStock and leaves the row untouched.
	AdjustQuantity(ctx context.Context, id string, delta int) (models.Book, error)
}

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByPhone(ctx context.Context, phone string) (models.User, error)
	List(ctx context.Context, f models.UserFilter) ([]models.User, error)
	Update(ctx context.Context, u models.User) (models.User, error)
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role string) (int, error)
}

// Assignments are never deleted; they form the loan history.
type Assignments interface {
	Create(ctx context.Context, a models.Assignment) (models.Assignment, error)
	GetByID(ctx context.Context, id string) (models.Assignment, error)
	// List orders by issued date, newest first.
	List(ctx context.Context, f models.AssignmentFilter) ([]models.Assignment, error)
	// MarkReturned flips returned false->true once; a second call yields
	// ErrAlreadyReturned.
	MarkReturned(ctx context.Context, id string, at time.Time) (models.Assignment, error)
}

type Reviews interface {
	Create(ctx context.Context, r models.Review) (models.Review, error)
	GetByID(ctx context.Context, id string) (models.Review, error)
	ListByBook(ctx context.Context, bookID string) ([]models.Review, error)
	Delete(ctx context.Context, id string) error
	SetVote(ctx context.Context, reviewID, userID string, v models.Vote) (models.Review, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// TxRunner runs fn as a single unit of work. Repository calls made with the
// ctx handed to fn participate in it.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories bundles one storage backend.
type Repositories struct {
	Books       Books
	Users       Users
	Assignments Assignments
	Reviews     Reviews
	AuditLogs   AuditLogs
	Tx          TxRunner
}
