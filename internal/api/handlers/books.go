package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/library-backend/internal/api/httpx"
	"github.com/baharkarakas/library-backend/internal/models"
	"github.com/baharkarakas/library-backend/internal/services"
)

type BookHandler struct {
	Books *services.BookService
}

type bookReq struct {
	Title    *string  `json:"title" validate:"omitempty,min=1,max=300"`
	Author   *string  `json:"author" validate:"omitempty,min=1,max=200"`
	Language *string  `json:"language" validate:"omitempty,min=1,max=50"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
	Quantity *int     `json:"quantity" validate:"omitempty,gte=0"`
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.BookFilter{
		Title:         q.Get("title"),
		Author:        q.Get("author"),
		Language:      q.Get("language"),
		AvailableOnly: q.Get("available") == "true",
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		f.Offset = v
	}
	books, err := h.Books.List(r.Context(), f)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"book": b})
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookReq
	if !decode(w, r, &req) {
		return
	}
	b := models.Book{}
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Author != nil {
		b.Author = *req.Author
	}
	if req.Language != nil {
		b.Language = *req.Language
	}
	if req.Price != nil {
		b.Price = *req.Price
	}
	if req.Quantity != nil {
		b.Quantity = *req.Quantity
	}
	out, err := h.Books.Create(r.Context(), b)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"book": out})
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req bookReq
	if !decode(w, r, &req) {
		return
	}
	out, err := h.Books.Update(r.Context(), chi.URLParam(r, "id"), services.BookUpdate{
		Title:    req.Title,
		Author:   req.Author,
		Language: req.Language,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"book": out})
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Books.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
