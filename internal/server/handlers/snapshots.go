package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/BuildAppolis/env-manager-sub001/internal/store"
	"github.com/BuildAppolis/env-manager-sub001/pkg/api"
)

// SnapshotsHandler serves snapshot CRUD and restore.
type SnapshotsHandler struct {
	logger *slog.Logger
	db     *store.EnvDatabase
}

// NewSnapshotsHandler creates the snapshots handler.
func NewSnapshotsHandler(logger *slog.Logger, db *store.EnvDatabase) *SnapshotsHandler {
	return &SnapshotsHandler{logger: logger, db: db}
}

// List handles GET /api/v1/snapshots.
func (h *SnapshotsHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.db.GetSnapshots()
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	resp := api.SnapshotsResponse{Snapshots: []api.SnapshotSummary{}}
	for _, snap := range snapshots {
		resp.Snapshots = append(resp.Snapshots, api.SnapshotSummary{
			ID:            snap.ID,
			Name:          snap.Name,
			Description:   snap.Description,
			CreatedAt:     snap.CreatedAt.Format(time.RFC3339),
			VariableCount: len(snap.Variables),
		})
	}
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Create handles POST /api/v1/snapshots.
func (h *SnapshotsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		sendError(h.logger, w, "snapshot name is required", http.StatusBadRequest)
		return
	}

	snap, err := h.db.CreateSnapshot(req.Name, req.Description)
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.SnapshotSummary{
		ID:            snap.ID,
		Name:          snap.Name,
		Description:   snap.Description,
		CreatedAt:     snap.CreatedAt.Format(time.RFC3339),
		VariableCount: len(snap.Variables),
	}, http.StatusCreated)
}

// Restore handles POST /api/v1/snapshots/{id}/restore.
func (h *SnapshotsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.db.RestoreSnapshot(id); err != nil {
		sendStoreError(h.logger, w, err)
		return
	}
	sendJSON(h.logger, w, map[string]string{"status": "restored"}, http.StatusOK)
}

// Delete handles DELETE /api/v1/snapshots/{id}.
func (h *SnapshotsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.db.DeleteSnapshot(id); err != nil {
		sendStoreError(h.logger, w, err)
		return
	}
	sendJSON(h.logger, w, map[string]string{"status": "deleted"}, http.StatusOK)
}
