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

type usersRepo struct{ s *Store }

// unique checks email/phone against every user except skipID.
func (r *usersRepo) unique(u models.User, skipID string) error {
	for id, o := range r.s.users {
		if id == skipID {
			continue
		}
		if strings.EqualFold(o.Email, u.Email) {
			return &repo.ConflictError{Field: "email"}
		}
		if o.Phone == u.Phone {
			return &repo.ConflictError{Field: "phone"}
		}
	}
	return nil
}

func (r *usersRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	defer r.s.lock(ctx)()
	if err := r.unique(u, ""); err != nil {
		return models.User{}, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = u
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetMany(ctx context.Context, ids []string) (map[string]models.User, error) {
	defer r.s.lock(ctx)()
	out := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, repo.ErrNotFound
}

func (r *usersRepo) GetByPhone(ctx context.Context, phone string) (models.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return models.User{}, repo.ErrNotFound
}

func (r *usersRepo) List(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	defer r.s.lock(ctx)()
	var out []models.User
	for _, u := range r.s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *usersRepo) Update(ctx context.Context, u models.User) (models.User, error) {
	defer r.s.lock(ctx)()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	if err := r.unique(u, u.ID); err != nil {
		return models.User{}, err
	}
	u.CreatedAt = cur.CreatedAt
	if u.PasswordHash == "" {
		u.PasswordHash = cur.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	r.s.users[u.ID] = u
	return u, nil
}

func (r *usersRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *usersRepo) CountByRole(ctx context.Context, role string) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}
