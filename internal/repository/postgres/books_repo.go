package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type booksRepo struct{ base }

const bookCols = `id, title, author, language, price, quantity, created_at, updated_at`

func scanBook(row pgx.Row) (models.Book, error) {
	var b models.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Language, &b.Price, &b.Quantity, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *booksRepo) Create(ctx context.Context, b models.Book) (models.Book, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	out, err := scanBook(r.q(ctx).QueryRow(ctx,
		`INSERT INTO books(id, title, author, language, price, quantity)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING `+bookCols,
		b.ID, b.Title, b.Author, b.Language, b.Price, b.Quantity,
	))
	return out, mapErr(err)
}

func (r *booksRepo) GetByID(ctx context.Context, id string) (models.Book, error) {
	b, err := scanBook(r.q(ctx).QueryRow(ctx, `SELECT `+bookCols+` FROM books WHERE id=$1`, id))
	return b, mapErr(err)
}

func (r *booksRepo) GetMany(ctx context.Context, ids []string) (map[string]models.Book, error) {
	out := make(map[string]models.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q(ctx).Query(ctx, `SELECT `+bookCols+` FROM books WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out[b.ID] = b
	}
	return out, rows.Err()
}

func (r *booksRepo) List(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Title != "" {
		add("title ILIKE '%%' || $%d::text || '%%'", f.Title)
	}
	if f.Author != "" {
		add("author ILIKE '%%' || $%d::text || '%%'", f.Author)
	}
	if f.Language != "" {
		add("language ILIKE '%%' || $%d::text || '%%'", f.Language)
	}
	if f.AvailableOnly {
		where = append(where, "quantity > 0")
	}

	q := `SELECT ` + bookCols + ` FROM books`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY title, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update is a single statement; columns whose parameter is NULL keep
// their current value, so quantity is only written when the patch sets it.
func (r *booksRepo) Update(ctx context.Context, id string, p models.BookPatch) (models.Book, error) {
	out, err := scanBook(r.q(ctx).QueryRow(ctx,
		`UPDATE books
		    SET title      = COALESCE($2, title),
		        author     = COALESCE($3, author),
		        language   = COALESCE($4, language),
		        price      = COALESCE($5, price),
		        quantity   = COALESCE($6, quantity),
		        updated_at = now()
		  WHERE id=$1
		  RETURNING `+bookCols,
		id, p.Title, p.Author, p.Language, p.Price, p.Quantity,
	))
	return out, mapErr(err)
}

func (r *booksRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// AdjustQuantity is a single conditional UPDATE, so two concurrent
// decrements of the last copy cannot both succeed.
func (r *booksRepo) AdjustQuantity(ctx context.Context, id string, delta int) (models.Book, error) {
	b, err := scanBook(r.q(ctx).QueryRow(ctx,
		`UPDATE books
		    SET quantity = quantity + $2,
		        updated_at = now()
		  WHERE id = $1 AND quantity + $2 >= 0
		  RETURNING `+bookCols,
		id, delta,
	))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Book{}, mapErr(err)
	}
	// no row updated: either the book is gone or the guard refused it
	cur, gerr := r.GetByID(ctx, id)
	if gerr != nil {
		return models.Book{}, gerr
	}
	return cur, repo.ErrOutOfStock
}
