package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/tailor-app/internal/httpx"
	"github.com/diewo77/tailor-app/internal/services"
)

// queryID parses a required numeric id from the query string.
func queryID(r *http.Request, key string) (uint, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

// pagination reads limit/page query params the same way across list handlers.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// writeServiceError maps the service error taxonomy onto the JSON envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	if ve, ok := services.AsValidationError(err); ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", ve.Violations)
		return
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, services.ErrInsufficientStock):
		httpx.JSONError(w, http.StatusConflict, "insufficient_stock", nil)
	case errors.Is(err, services.ErrInvalidTransition):
		httpx.JSONError(w, http.StatusConflict, "invalid_transition", nil)
	case errors.Is(err, services.ErrInvalidCancellation):
		httpx.JSONError(w, http.StatusConflict, "invalid_cancellation", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
