package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/memory-gate/internal/site"
	"github.com/jwebster45206/memory-gate/pkg/unlock"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// errorStatus maps site and gate errors onto HTTP responses.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, site.ErrUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, site.ErrWarming):
		return http.StatusServiceUnavailable, "Gallery is warming up, try again shortly"
	case errors.Is(err, unlock.ErrUnknownSection):
		return http.StatusNotFound, "Section not found"
	case errors.Is(err, unlock.ErrEntryLocked):
		return http.StatusForbidden, "Answer the entry question first"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
