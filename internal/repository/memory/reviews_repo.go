package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
)

type reviewsRepo struct{ s *Store }

func (r *reviewsRepo) Create(ctx context.Context, rv models.Review) (models.Review, error) {
	defer r.s.lock(ctx)()
	for _, o := range r.s.reviews {
		if o.UserID == rv.UserID && o.BookID == rv.BookID {
			return models.Review{}, &repo.ConflictError{Field: "review"}
		}
	}
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	rv.CreatedAt = time.Now().UTC()
	rv.Likes = []string{}
	rv.Dislikes = []string{}
	r.s.reviews[rv.ID] = rv
	return clone(rv), nil
}

func (r *reviewsRepo) GetByID(ctx context.Context, id string) (models.Review, error) {
	defer r.s.lock(ctx)()
	rv, ok := r.s.reviews[id]
	if !ok {
		return models.Review{}, repo.ErrNotFound
	}
	return clone(rv), nil
}

func (r *reviewsRepo) ListByBook(ctx context.Context, bookID string) ([]models.Review, error) {
	defer r.s.lock(ctx)()
	out := []models.Review{}
	for _, rv := range r.s.reviews {
		if rv.BookID == bookID {
			out = append(out, clone(rv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *reviewsRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.reviews[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.reviews, id)
	return nil
}

func (r *reviewsRepo) SetVote(ctx context.Context, reviewID, userID string, v models.Vote) (models.Review, error) {
	defer r.s.lock(ctx)()
	rv, ok := r.s.reviews[reviewID]
	if !ok {
		return models.Review{}, repo.ErrNotFound
	}
	rv = clone(rv)
	rv.ApplyVote(userID, v)
	r.s.reviews[reviewID] = rv
	return clone(rv), nil
}

// clone detaches the voter slices from the stored record.
func clone(rv models.Review) models.Review {
	rv.Likes = slices.Clone(rv.Likes)
	rv.Dislikes = slices.Clone(rv.Dislikes)
	if rv.Likes == nil {
		rv.Likes = []string{}
	}
	if rv.Dislikes == nil {
		rv.Dislikes = []string{}
	}
	return rv
}
