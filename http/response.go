package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/rangeserve"
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

// HandleError writes appropriate error response based on error type.
// Store failures that reach this point have no HTTP meaning of their own and
// become 500.
func HandleError(w http.ResponseWriter, err error) {
	if errors.Is(err, rangeserve.ErrInvalidInput) {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	slog.Error("request error", "error", err)
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}
