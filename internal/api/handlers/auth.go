// internal/api/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/baharkarakas/library-backend/internal/api/httpx"
	"github.com/baharkarakas/library-backend/internal/api/validate"
	"github.com/baharkarakas/library-backend/internal/models"
	"github.com/baharkarakas/library-backend/internal/services"
)

type AuthHandler struct {
	Auth  *services.AuthService
	Users *services.UserService
}

func NewAuthHandler(a *services.AuthService, u *services.UserService) *AuthHandler {
	return &AuthHandler{Auth: a, Users: u}
}

type signupReq struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (req signupReq) input() services.CreateUserInput {
	return services.CreateUserInput{Username: req.Name, Email: req.Email, Phone: req.Phone, Password: req.Password}
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) AdminSignup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if !decode(w, r, &req) {
		return
	}
	s, err := h.Auth.AdminSignup(r.Context(), req.input())
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, s)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if !decode(w, r, &req) {
		return
	}
	u, err := h.Users.Register(r.Context(), req.input())
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "registration received; an admin must approve the account before login",
		"user":    u,
	})
}

func (h *AuthHandler) login(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if !decode(w, r, &req) {
			return
		}
		s, err := h.Auth.Login(r.Context(), req.Email, req.Password, role)
		if err != nil {
			httpx.WriteAppError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, s)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(models.RoleUser)(w, r)
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(models.RoleAdmin)(w, r)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if !decode(w, r, &req) {
		return
	}
	s, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

// decode parses and validates the body, writing the error response itself.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(r, v); err != nil {
		httpx.WriteAppError(w, r, err)
		return false
	}
	if err := validate.Struct(v); err != nil {
		httpx.WriteAppError(w, r, err)
		return false
	}
	return true
}
