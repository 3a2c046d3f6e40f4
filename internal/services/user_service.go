package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/baharkarakas/library-backend/internal/apperr"
	"github.com/baharkarakas/library-backend/internal/auth"
	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
)

type UserService struct {
	r   repo.Users
	log *slog.Logger
}

func NewUserService(r repo.Users, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{r: r, log: log}
}

type CreateUserInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

func (s *UserService) create(ctx context.Context, in CreateUserInput, role string, byAdmin bool) (models.User, error) {
	u := models.User{
		Username:       in.Username,
		Email:          in.Email,
		Phone:          in.Phone,
		Role:           role,
		Active:         true,
		CreatedByAdmin: byAdmin,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, apperr.Validation(err.Error(), nil)
	}
	if len(in.Password) < auth.MinPasswordLen {
		return models.User{}, apperr.Validationf("password must be at least %d characters", auth.MinPasswordLen)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash
	out, err := s.r.Create(ctx, u)
	return out, userConflict(err)
}

// CreateByAdmin registers a patron who may log in immediately.
func (s *UserService) CreateByAdmin(ctx context.Context, in CreateUserInput) (models.User, error) {
	return s.create(ctx, in, models.RoleUser, true)
}

// Register is self-service sign-up; the account stays pending until an
// admin approves it.
func (s *UserService) Register(ctx context.Context, in CreateUserInput) (models.User, error) {
	return s.create(ctx, in, models.RoleUser, false)
}

func (s *UserService) CreateAdmin(ctx context.Context, in CreateUserInput) (models.User, error) {
	return s.create(ctx, in, models.RoleAdmin, true)
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	if err := validateID("userId", id); err != nil {
		return models.User{}, err
	}
	u, err := s.r.GetByID(ctx, id)
	return u, notFound(err, apperr.ErrUserNotFound)
}

func (s *UserService) List(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	if f.Limit <= 0 || f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	return s.r.List(ctx, f)
}

type UserUpdate struct {
	Username *string
	Email    *string
	Phone    *string
	Active   *bool
	Password *string
}

func (s *UserService) Update(ctx context.Context, id string, in UserUpdate) (models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if err := u.Validate(); err != nil {
		return models.User{}, apperr.Validation(err.Error(), nil)
	}
	u.PasswordHash = ""
	if in.Password != nil {
		if len(*in.Password) < auth.MinPasswordLen {
			return models.User{}, apperr.Validationf("password must be at least %d characters", auth.MinPasswordLen)
		}
		if u.PasswordHash, err = auth.HashPassword(*in.Password); err != nil {
			return models.User{}, err
		}
	}
	out, err := s.r.Update(ctx, u)
	if err != nil {
		return models.User{}, userConflict(notFound(err, apperr.ErrUserNotFound))
	}
	return out, nil
}

// Approve lets a self-registered user log in.
func (s *UserService) Approve(ctx context.Context, id string) (models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if u.CreatedByAdmin {
		return u, nil
	}
	u.CreatedByAdmin = true
	u.PasswordHash = ""
	out, err := s.r.Update(ctx, u)
	return out, notFound(err, apperr.ErrUserNotFound)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := validateID("userId", id); err != nil {
		return err
	}
	return notFound(s.r.Delete(ctx, id), apperr.ErrUserNotFound)
}

// EnsureAdmin creates the bootstrap admin when no account uses email yet.
// The phone is stored as given and must be unique like any other account's.
func (s *UserService) EnsureAdmin(ctx context.Context, email, phone, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.r.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	_, err = s.CreateAdmin(ctx, CreateUserInput{
		Username: "admin",
		Email:    email,
		Phone:    phone,
		Password: password,
	})
	if err != nil {
		return err
	}
	s.log.Info("bootstrap admin created", "email", email)
	return nil
}
