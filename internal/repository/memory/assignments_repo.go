package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
)

type assignmentsRepo struct{ s *Store }

func (r *assignmentsRepo) Create(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	defer r.s.lock(ctx)()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.s.assignments[a.ID] = a
	return a, nil
}

func (r *assignmentsRepo) GetByID(ctx context.Context, id string) (models.Assignment, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.assignments[id]
	if !ok {
		return models.Assignment{}, repo.ErrNotFound
	}
	return a, nil
}

func (r *assignmentsRepo) List(ctx context.Context, f models.AssignmentFilter) ([]models.Assignment, error) {
	defer r.s.lock(ctx)()
	out := []models.Assignment{}
	for _, a := range r.s.assignments {
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if !f.Status.Match(a) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedDate.Equal(out[j].IssuedDate) {
			return out[i].IssuedDate.After(out[j].IssuedDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *assignmentsRepo) MarkReturned(ctx context.Context, id string, at time.Time) (models.Assignment, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.assignments[id]
	if !ok {
		return models.Assignment{}, repo.ErrNotFound
	}
	if a.Returned {
		return a, repo.ErrAlreadyReturned
	}
	a.Returned = true
	a.ReturnDate = &at
	r.s.assignments[id] = a
	return a, nil
}
