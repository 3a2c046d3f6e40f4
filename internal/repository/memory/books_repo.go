package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
)

type booksRepo struct{ s *Store }

func (r *booksRepo) Create(ctx context.Context, b models.Book) (models.Book, error) {
	defer r.s.lock(ctx)()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.books[b.ID] = b
	return b, nil
}

func (r *booksRepo) GetByID(ctx context.Context, id string) (models.Book, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.books[id]
	if !ok {
		return models.Book{}, repo.ErrNotFound
	}
	return b, nil
}

func (r *booksRepo) GetMany(ctx context.Context, ids []string) (map[string]models.Book, error) {
	defer r.s.lock(ctx)()
	out := make(map[string]models.Book, len(ids))
	for _, id := range ids {
		if b, ok := r.s.books[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func (r *booksRepo) List(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	defer r.s.lock(ctx)()
	var out []models.Book
	for _, b := range r.s.books {
		if !containsFold(b.Title, f.Title) || !containsFold(b.Author, f.Author) || !containsFold(b.Language, f.Language) {
			continue
		}
		if f.AvailableOnly && b.Quantity <= 0 {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *booksRepo) Update(ctx context.Context, id string, p models.BookPatch) (models.Book, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.books[id]
	if !ok {
		return models.Book{}, repo.ErrNotFound
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Language != nil {
		b.Language = *p.Language
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.Quantity != nil {
		b.Quantity = *p.Quantity
	}
	b.UpdatedAt = time.Now().UTC()
	r.s.books[id] = b
	return b, nil
}

func (r *booksRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.books[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.books, id)
	return nil
}

func (r *booksRepo) AdjustQuantity(ctx context.Context, id string, delta int) (models.Book, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.books[id]
	if !ok {
		return models.Book{}, repo.ErrNotFound
	}
	if b.Quantity+delta < 0 {
		return b, repo.ErrOutOfStock
	}
	b.Quantity += delta
	b.UpdatedAt = time.Now().UTC()
	r.s.books[id] = b
	return b, nil
}

func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
