package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/webroot"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError maps a repo error onto a JSON error response.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, webroot.ErrInvalidInput):
		slog.Debug("rejected admin query", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, webroot.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	default:
		slog.Error("admin request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
