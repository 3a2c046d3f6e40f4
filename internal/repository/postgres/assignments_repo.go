package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type assignmentsRepo struct{ base }

const assignmentCols = `id, user_id, book_id, issued_date, due_date, rent, returned, return_date`

func scanAssignment(row pgx.Row) (models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(&a.ID, &a.UserID, &a.BookID, &a.IssuedDate, &a.DueDate, &a.Rent, &a.Returned, &a.ReturnDate)
	return a, err
}

func (r *assignmentsRepo) Create(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	out, err := scanAssignment(r.q(ctx).QueryRow(ctx,
		`INSERT INTO assignments(id, user_id, book_id, issued_date, due_date, rent, returned)
		 VALUES($1,$2,$3,$4,$5,$6,false)
		 RETURNING `+assignmentCols,
		a.ID, a.UserID, a.BookID, a.IssuedDate, a.DueDate, a.Rent,
	))
	return out, mapErr(err)
}

func (r *assignmentsRepo) GetByID(ctx context.Context, id string) (models.Assignment, error) {
	a, err := scanAssignment(r.q(ctx).QueryRow(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id=$1`, id))
	return a, mapErr(err)
}

func (r *assignmentsRepo) List(ctx context.Context, f models.AssignmentFilter) ([]models.Assignment, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+assignmentCols+`
		   FROM assignments
		  WHERE ($1::text = '' OR user_id::text = $1::text)
		    AND ($2::text = 'all' OR ($2::text = 'active' AND NOT returned) OR ($2::text = 'returned' AND returned))
		  ORDER BY issued_date DESC, id DESC`,
		f.UserID, string(f.Status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkReturned only touches rows still out on loan.
func (r *assignmentsRepo) MarkReturned(ctx context.Context, id string, at time.Time) (models.Assignment, error) {
	a, err := scanAssignment(r.q(ctx).QueryRow(ctx,
		`UPDATE assignments
		    SET returned = true, return_date = $2
		  WHERE id = $1 AND NOT returned
		  RETURNING `+assignmentCols,
		id, at,
	))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Assignment{}, mapErr(err)
	}
	cur, gerr := r.GetByID(ctx, id)
	if gerr != nil {
		return models.Assignment{}, gerr
	}
	return cur, repo.ErrAlreadyReturned
}
