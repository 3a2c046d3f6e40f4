package postgres

import (
	"context"

	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type reviewsRepo struct{ base }

const reviewCols = `id, user_id, book_id, comment, likes::text[], dislikes::text[], created_at`

func scanReview(row pgx.Row) (models.Review, error) {
	var rv models.Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.BookID, &rv.Comment, &rv.Likes, &rv.Dislikes, &rv.CreatedAt)
	return rv, err
}

func (r *reviewsRepo) Create(ctx context.Context, rv models.Review) (models.Review, error) {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	out, err := scanReview(r.q(ctx).QueryRow(ctx,
		`INSERT INTO reviews(id, user_id, book_id, comment)
		 VALUES($1,$2,$3,$4)
		 RETURNING `+reviewCols,
		rv.ID, rv.UserID, rv.BookID, rv.Comment,
	))
	return out, mapErr(err)
}

func (r *reviewsRepo) GetByID(ctx context.Context, id string) (models.Review, error) {
	rv, err := scanReview(r.q(ctx).QueryRow(ctx, `SELECT `+reviewCols+` FROM reviews WHERE id=$1`, id))
	return rv, mapErr(err)
}

func (r *reviewsRepo) ListByBook(ctx context.Context, bookID string) ([]models.Review, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+reviewCols+` FROM reviews WHERE book_id=$1 ORDER BY created_at DESC`, bookID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *reviewsRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// SetVote rewrites both voter arrays in one statement so a user is never
// in both sets.
func (r *reviewsRepo) SetVote(ctx context.Context, reviewID, userID string, v models.Vote) (models.Review, error) {
	rv, err := scanReview(r.q(ctx).QueryRow(ctx,
		`UPDATE reviews
		    SET likes = CASE WHEN $3::text = 'like' THEN array_append(array_remove(likes, $2::uuid), $2::uuid)
		                     ELSE array_remove(likes, $2::uuid) END,
		        dislikes = CASE WHEN $3::text = 'dislike' THEN array_append(array_remove(dislikes, $2::uuid), $2::uuid)
		                        ELSE array_remove(dislikes, $2::uuid) END
		  WHERE id = $1
		  RETURNING `+reviewCols,
		reviewID, userID, string(v),
	))
	return rv, mapErr(err)
}
