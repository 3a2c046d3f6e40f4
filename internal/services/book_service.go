package services

import (
	"context"

	"github.com/baharkarakas/library-backend/internal/apperr"
	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type BookService struct{ r repo.Books }

func NewBookService(r repo.Books) *BookService { return &BookService{r: r} }

func (s *BookService) Create(ctx context.Context, b models.Book) (models.Book, error) {
	b.ID = ""
	if err := b.Validate(); err != nil {
		return models.Book{}, apperr.Validation(err.Error(), nil)
	}
	return s.r.Create(ctx, b)
}

func (s *BookService) Get(ctx context.Context, id string) (models.Book, error) {
	if err := validateID("bookId", id); err != nil {
		return models.Book{}, err
	}
	b, err := s.r.GetByID(ctx, id)
	return b, notFound(err, apperr.ErrBookNotFound)
}

func (s *BookService) List(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.r.List(ctx, f)
}

// BookUpdate holds the fields a PUT may change; nil means unchanged.
type BookUpdate = models.BookPatch

// Update writes only the fields present in u, so a concurrent checkout's
// decrement is never overwritten by a stale read.
func (s *BookService) Update(ctx context.Context, id string, u BookUpdate) (models.Book, error) {
	if err := validateID("bookId", id); err != nil {
		return models.Book{}, err
	}
	if err := u.Validate(); err != nil {
		return models.Book{}, apperr.Validation(err.Error(), nil)
	}
	out, err := s.r.Update(ctx, id, u)
	return out, notFound(err, apperr.ErrBookNotFound)
}

func (s *BookService) Delete(ctx context.Context, id string) error {
	if err := validateID("bookId", id); err != nil {
		return err
	}
	return notFound(s.r.Delete(ctx, id), apperr.ErrBookNotFound)
}
