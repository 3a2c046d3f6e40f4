package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/library-backend/internal/access"
	"github.com/baharkarakas/library-backend/internal/api/httpx"
	"github.com/baharkarakas/library-backend/internal/apperr"
	"github.com/baharkarakas/library-backend/internal/models"
	"github.com/baharkarakas/library-backend/internal/services"
)

// AssignmentHandler exposes the borrowing lifecycle. Role gates are
// applied by the router before these run.
type AssignmentHandler struct {
	Assignments *services.AssignmentService
	Loc         *time.Location
}

type assignReq struct {
	UserID      string  `json:"userId" validate:"required"`
	BookID      string  `json:"bookId" validate:"required"`
	DaysAllowed int     `json:"daysAllowed" validate:"gte=0,lte=3650"`
	DueDate     string  `json:"dueDate"`
	Rent        float64 `json:"rent" validate:"gte=0.01"`
}

// parseDueDate accepts RFC3339 or a bare YYYY-MM-DD in the library's zone.
func (h *AssignmentHandler) parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	loc := h.Loc
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return nil, apperr.Validation("dueDate must be RFC3339 or YYYY-MM-DD", nil)
	}
	return &t, nil
}

func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignReq
	if !decode(w, r, &req) {
		return
	}
	due, err := h.parseDueDate(req.DueDate)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	c, _ := access.FromContext(r.Context())
	a, err := h.Assignments.Checkout(r.Context(), services.CheckoutInput{
		UserID:      req.UserID,
		BookID:      req.BookID,
		DaysAllowed: req.DaysAllowed,
		DueDate:     due,
		Rent:        req.Rent,
		ActorID:     c.SubjectID,
	})
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"assignment": a})
}

func (h *AssignmentHandler) list(w http.ResponseWriter, r *http.Request, f models.AssignmentFilter) {
	c, _ := access.FromContext(r.Context())
	list, err := h.Assignments.List(r.Context(), c, f)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"assignments": list})
}

func (h *AssignmentHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.AssignmentFilter{
		UserID: chi.URLParam(r, "userId"),
		Status: models.AssignmentStatusFilter(r.URL.Query().Get("status")),
	})
}

func (h *AssignmentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.AssignmentFilter{
		Status: models.AssignmentStatusFilter(r.URL.Query().Get("status")),
	})
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.Assignments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	c, _ := access.FromContext(r.Context())
	if !access.CanAccessAssignment(c, v.Assignment) {
		httpx.WriteAppError(w, r, apperr.ErrForbidden)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"assignment": v})
}

func (h *AssignmentHandler) Return(w http.ResponseWriter, r *http.Request) {
	c, _ := access.FromContext(r.Context())
	a, err := h.Assignments.Return(r.Context(), chi.URLParam(r, "assignmentId"), c.SubjectID)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"assignment": a})
}

func (h *AssignmentHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	c, _ := access.FromContext(r.Context())
	sum, err := h.Assignments.SendReminder(r.Context(), chi.URLParam(r, "assignmentId"), c.SubjectID)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":    "reminder sent to " + sum.Email,
		"assignment": sum,
	})
}

func (h *AssignmentHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	c, _ := access.FromContext(r.Context())
	res, err := h.Assignments.SendDueReminders(r.Context(), c.SubjectID)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
