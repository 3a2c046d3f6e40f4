package services

import (
	"context"
	"errors"
	"strings"

	"github.com/baharkarakas/library-backend/internal/apperr"
	"github.com/baharkarakas/library-backend/internal/auth"
	"github.com/baharkarakas/library-backend/internal/models"
	repo "github.com/baharkarakas/library-backend/internal/repository"
)

// AuthService issues token pairs; it is the credential side of the access
// control layer.
type AuthService struct {
	users       repo.Users
	userSvc     *UserService
	tm          *auth.TokenManager
	adminSignup bool
}

func NewAuthService(users repo.Users, userSvc *UserService, tm *auth.TokenManager, allowAdminSignup bool) *AuthService {
	return &AuthService{users: users, userSvc: userSvc, tm: tm, adminSignup: allowAdminSignup}
}

type Session struct {
	auth.Pair
	User models.User `json:"user"`
}

// Login checks credentials for the given role. Patrons additionally need
// admin approval and an active account.
func (s *AuthService) Login(ctx context.Context, email, password, role string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Session{}, apperr.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if u.Role != role {
		return Session{}, apperr.ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return Session{}, apperr.ErrInvalidCredentials
	}
	if !u.CreatedByAdmin {
		return Session{}, apperr.ErrAccountPending
	}
	if !u.Active {
		return Session{}, apperr.ErrAccountInactive
	}
	return s.issue(u)
}

// AdminSignup is open while no admin exists, or when explicitly enabled.
func (s *AuthService) AdminSignup(ctx context.Context, in CreateUserInput) (Session, error) {
	if !s.adminSignup {
		n, err := s.users.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return Session{}, err
		}
		if n > 0 {
			return Session{}, apperr.ErrAdminSignupClosed
		}
	}
	u, err := s.userSvc.CreateAdmin(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.issue(u)
}

// Refresh re-reads the account so role changes and deactivation apply.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.tm.ParseRefresh(refreshToken)
	if err != nil {
		return Session{}, apperr.ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Session{}, apperr.ErrInvalidToken
		}
		return Session{}, err
	}
	if !u.Active {
		return Session{}, apperr.ErrAccountInactive
	}
	return s.issue(u)
}

func (s *AuthService) issue(u models.User) (Session, error) {
	pair, err := s.tm.GeneratePair(u.ID, u.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{Pair: pair, User: u}, nil
}
