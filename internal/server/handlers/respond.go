package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BuildAppolis/env-manager-sub001/internal/draft"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
	"github.com/BuildAppolis/env-manager-sub001/pkg/api"
)

// sendJSON writes a JSON response with the given status code.
func sendJSON(logger *slog.Logger, w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// sendError writes the uniform error envelope.
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, status int) {
	sendJSON(logger, w, api.ErrorResponse{Error: message}, status)
}

// sendStoreError maps the core error taxonomy to HTTP status codes:
// authentication failures to 401, not-found conditions to 404, bad
// input (including an empty publish) to 400, everything else to 500.
func sendStoreError(logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotAuthenticated),
		errors.Is(err, store.ErrInvalidPassword):
		sendError(logger, w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, store.ErrVariableNotFound),
		errors.Is(err, store.ErrSnapshotNotFound),
		errors.Is(err, store.ErrBranchNotFound),
		errors.Is(err, draft.ErrVersionNotFound),
		errors.Is(err, draft.ErrNoDraft):
		sendError(logger, w, err.Error(), http.StatusNotFound)
	case errors.Is(err, draft.ErrNoChanges):
		sendError(logger, w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error("internal error", slog.Any("error", err))
		sendError(logger, w, "internal server error", http.StatusInternalServerError)
	}
}
