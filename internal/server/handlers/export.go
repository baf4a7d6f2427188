package handlers

import (
	"log/slog"
	"net/http"

	"github.com/BuildAppolis/env-manager-sub001/internal/store"
	"github.com/BuildAppolis/env-manager-sub001/pkg/api"
)

// ExportHandler regenerates the project's env files.
type ExportHandler struct {
	logger     *slog.Logger
	db         *store.EnvDatabase
	projectDir string
}

// NewExportHandler creates the export handler. projectDir is where the
// generated files land.
func NewExportHandler(logger *slog.Logger, db *store.EnvDatabase, projectDir string) *ExportHandler {
	return &ExportHandler{logger: logger, db: db, projectDir: projectDir}
}

// Export handles POST /api/v1/export. It writes .env and .env.example
// to the project root.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if err := h.db.WriteEnvFiles(h.projectDir); err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	h.logger.Info("env files regenerated", slog.String("dir", h.projectDir))
	sendJSON(h.logger, w, api.ExportResponse{Files: []string{".env", ".env.example"}}, http.StatusOK)
}
