package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/library-backend/internal/apperr"
	"github.com/baharkarakas/library-backend/internal/logger"
)

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// StatusOf maps an error kind to its HTTP status. Stock and reminder
// conflicts are client mistakes on an otherwise valid request and stay 400.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		switch apperr.CodeOf(err) {
		case apperr.ErrOutOfStock.Code, apperr.ErrAlreadyReturned.Code, apperr.ErrMissingContact.Code:
			return http.StatusBadRequest
		}
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError renders err; internal errors are logged and never echoed.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	var ae *apperr.Error
	if status == http.StatusInternalServerError || !errors.As(err, &ae) {
		logger.FromContext(r.Context(), slog.Default()).Error("request failed", "path", r.URL.Path, "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}
	if status == http.StatusBadGateway {
		logger.FromContext(r.Context(), slog.Default()).Warn("upstream failure", "path", r.URL.Path, "err", err)
	}
	WriteError(w, status, ae.Code, ae.Message, ae.Details)
}

// DecodeJSON reads a single JSON object, rejecting unknown fields.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid JSON body: "+err.Error(), nil)
	}
	return nil
}
