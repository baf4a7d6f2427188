package handlers

import (
	"log/slog"
	"net/http"

	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger  *slog.Logger
	db      *store.EnvDatabase
	version string
}

// NewHealthHandler creates a new handler for health checks.
func NewHealthHandler(logger *slog.Logger, db *store.EnvDatabase, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		db:      db,
		version: version,
	}
}

// HealthResponse represents the health check payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Variables int    `json:"variables"`
}

// Health handles GET /api/v1/health. The endpoint is unauthenticated
// so supervisors can check it before login.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.db.VariableCount()
	if err != nil {
		count = 0
	}
	resp := HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Variables: count,
	}
	sendJSON(h.logger, w, resp, http.StatusOK)
}
