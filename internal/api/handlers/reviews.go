package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/library-backend/internal/access"
	"github.com/baharkarakas/library-backend/internal/api/httpx"
	"github.com/baharkarakas/library-backend/internal/models"
	"github.com/baharkarakas/library-backend/internal/services"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

type reviewReq struct {
	Comment string `json:"comment" validate:"required,max=2000"`
}

func (h *ReviewHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req reviewReq
	if !decode(w, r, &req) {
		return
	}
	c, _ := access.FromContext(r.Context())
	rv, err := h.Reviews.Add(r.Context(), c, chi.URLParam(r, "bookId"), req.Comment)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"review": rv})
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Reviews.ListByBook(r.Context(), chi.URLParam(r, "bookId"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"reviews": list})
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, _ := access.FromContext(r.Context())
	if err := h.Reviews.Delete(r.Context(), c, chi.URLParam(r, "reviewId")); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Vote returns a handler that records v for the caller.
func (h *ReviewHandler) Vote(v models.Vote) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, _ := access.FromContext(r.Context())
		rv, err := h.Reviews.Vote(r.Context(), c, chi.URLParam(r, "reviewId"), v)
		if err != nil {
			httpx.WriteAppError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"review":        rv,
			"like_count":    len(rv.Likes),
			"dislike_count": len(rv.Dislikes),
		})
	}
}
