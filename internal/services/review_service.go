package services

import (
	"context"
	"errors"
	"strings"

	"github.com/baharkarakas/library-backend/internal/access"
	"github.com/baharkarakas/library-backend/internal/apperr"
	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
)

const maxCommentLen = 2000

type ReviewService struct {
	reviews repo.Reviews
	books   repo.Books
	users   repo.Users
}

func NewReviewService(r repo.Repositories) *ReviewService {
	return &ReviewService{reviews: r.Reviews, books: r.Books, users: r.Users}
}

func (s *ReviewService) Add(ctx context.Context, caller access.Caller, bookID, comment string) (models.Review, error) {
	if err := validateID("bookId", bookID); err != nil {
		return models.Review{}, err
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return models.Review{}, apperr.Validation("comment is required", nil)
	}
	if len(comment) > maxCommentLen {
		return models.Review{}, apperr.Validationf("comment must be at most %d characters", maxCommentLen)
	}
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return models.Review{}, notFound(err, apperr.ErrBookNotFound)
	}

	rv, err := s.reviews.Create(ctx, models.Review{UserID: caller.SubjectID, BookID: bookID, Comment: comment})
	if errors.Is(err, repo.ErrConflict) {
		return models.Review{}, apperr.ErrDuplicateReview
	}
	return rv, err
}

func (s *ReviewService) ListByBook(ctx context.Context, bookID string) ([]models.ReviewView, error) {
	if err := validateID("bookId", bookID); err != nil {
		return nil, err
	}
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return nil, notFound(err, apperr.ErrBookNotFound)
	}
	list, err := s.reviews.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list))
	for _, rv := range list {
		ids = append(ids, rv.UserID)
	}
	authors, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.ReviewView, 0, len(list))
	for _, rv := range list {
		v := models.ReviewView{
			Review:       rv,
			Author:       models.UserRef{ID: rv.UserID, Username: models.Unknown},
			LikeCount:    len(rv.Likes),
			DislikeCount: len(rv.Dislikes),
		}
		if u, ok := authors[rv.UserID]; ok {
			v.Author.Username = u.Username
		}
		out = append(out, v)
	}
	return out, nil
}

// Delete removes a review; only its author may do so.
func (s *ReviewService) Delete(ctx context.Context, caller access.Caller, reviewID string) error {
	if err := validateID("reviewId", reviewID); err != nil {
		return err
	}
	rv, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return notFound(err, apperr.ErrReviewNotFound)
	}
	if !access.CanDeleteReview(caller, rv) {
		return apperr.ErrForbidden
	}
	return notFound(s.reviews.Delete(ctx, reviewID), apperr.ErrReviewNotFound)
}

func (s *ReviewService) Vote(ctx context.Context, caller access.Caller, reviewID string, v models.Vote) (models.Review, error) {
	if err := validateID("reviewId", reviewID); err != nil {
		return models.Review{}, err
	}
	switch v {
	case models.VoteLike, models.VoteDislike, models.VoteNone:
	default:
		return models.Review{}, apperr.Validationf("unknown vote %q", v)
	}
	rv, err := s.reviews.SetVote(ctx, reviewID, caller.SubjectID, v)
	return rv, notFound(err, apperr.ErrReviewNotFound)
}
