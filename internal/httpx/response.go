// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/tailor-app/internal/logging"
)

// ErrorResponse is the error envelope returned on every non-2xx response: a
// stable error code plus optional per-field details (validation violations).
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload with the given status. Encoding happens before the
// header is sent so a marshal failure can still surface as a 500.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			logging.New("httpx").Error("response encode failed", "err", err)
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// Client gone; the status line is already out.
		logging.New("httpx").Warn("response write failed", "err", err)
	}
}

// JSONError writes the standard error envelope.
func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}
