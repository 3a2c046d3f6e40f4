// Package memory is a map-backed storage backend for development and tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
)

// Store serialises every operation on a single mutex. WithinTx holds the
// mutex for the whole callback and restores a snapshot when it fails.
type Store struct {
	mu          sync.Mutex
	books       map[string]models.Book
	users       map[string]models.User
	assignments map[string]models.Assignment
	reviews     map[string]models.Review
	audit       []models.AuditLog
}

func NewStore() *Store {
	return &Store{
		books:       make(map[string]models.Book),
		users:       make(map[string]models.User),
		assignments: make(map[string]models.Assignment),
		reviews:     make(map[string]models.Review),
	}
}

func NewRepositories(s *Store) repo.Repositories {
	return repo.Repositories{
		Books:       &booksRepo{s},
		Users:       &usersRepo{s},
		Assignments: &assignmentsRepo{s},
		Reviews:     &reviewsRepo{s},
		AuditLogs:   &auditLogsRepo{s},
		Tx:          s,
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lock acquires the store mutex unless ctx already runs inside WithinTx.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	books       map[string]models.Book
	users       map[string]models.User
	assignments map[string]models.Assignment
	reviews     map[string]models.Review
	audit       int
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		books:       maps.Clone(s.books),
		users:       maps.Clone(s.users),
		assignments: maps.Clone(s.assignments),
		reviews:     maps.Clone(s.reviews),
		audit:       len(s.audit),
	}
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.books, s.users, s.assignments, s.reviews = snap.books, snap.users, snap.assignments, snap.reviews
		s.audit = s.audit[:snap.audit]
		return err
	}
	return nil
}

// AuditLogs returns a copy of every recorded entry.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.audit...)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
