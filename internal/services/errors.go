package services

import (
	"errors"

	"github.com/google/uuid"

	"github.com/baharkarakas/library-backend/internal/apperr"
	repo "github.com/baharkarakas/library-backend/internal/repository"
)

// validateID accepts only canonical 36-character UUIDs.
func validateID(field, id string) error {
	if len(id) != 36 {
		return apperr.Validationf("%s must be a valid id", field)
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validationf("%s must be a valid id", field)
	}
	return nil
}

// notFound maps repository.ErrNotFound to the given sentinel and passes
// anything else through.
func notFound(err error, sentinel *apperr.Error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return sentinel
	}
	return err
}

// userConflict maps unique violations on users to email/phone errors.
func userConflict(err error) error {
	var ce *repo.ConflictError
	if errors.As(err, &ce) {
		if ce.Field == "phone" {
			return apperr.ErrPhoneTaken
		}
		return apperr.ErrEmailTaken
	}
	return err
}
