// internal/repository/postgres/users_repo.go
package postgres

import (
	"context"
	"fmt"

	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type usersRepo struct{ base }

const userCols = `id, username, email, phone_number, password_hash, role, is_active, created_by_admin, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedByAdmin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	out, err := scanUser(r.q(ctx).QueryRow(ctx,
		`INSERT INTO users(id, username, email, phone_number, password_hash, role, is_active, created_by_admin)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING `+userCols,
		u.ID, u.Username, u.Email, u.Phone, u.PasswordHash, u.Role, u.Active, u.CreatedByAdmin,
	))
	return out, mapErr(err)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(r.q(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	return u, mapErr(err)
}

func (r *usersRepo) GetMany(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q(ctx).Query(ctx, `SELECT `+userCols+` FROM users WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.q(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE lower(email)=lower($1)`, email))
	return u, mapErr(err)
}

func (r *usersRepo) GetByPhone(ctx context.Context, phone string) (models.User, error) {
	u, err := scanUser(r.q(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE phone_number=$1`, phone))
	return u, mapErr(err)
}

func (r *usersRepo) List(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	q := `SELECT ` + userCols + ` FROM users`
	var args []any
	if f.Role != "" {
		args = append(args, f.Role)
		q += ` WHERE role=$1`
	}
	q += ` ORDER BY created_at DESC`
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	q += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update keeps the stored password hash when u.PasswordHash is empty.
func (r *usersRepo) Update(ctx context.Context, u models.User) (models.User, error) {
	out, err := scanUser(r.q(ctx).QueryRow(ctx,
		`UPDATE users
		    SET username=$2, email=$3, phone_number=$4, role=$5, is_active=$6, created_by_admin=$7,
		        password_hash=COALESCE(NULLIF($8, ''), password_hash),
		        updated_at=now()
		  WHERE id=$1
		  RETURNING `+userCols,
		u.ID, u.Username, u.Email, u.Phone, u.Role, u.Active, u.CreatedByAdmin, u.PasswordHash,
	))
	return out, mapErr(err)
}

func (r *usersRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *usersRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.q(ctx).QueryRow(ctx, `SELECT count(*) FROM users WHERE role=$1`, role).Scan(&n)
	return n, err
}
