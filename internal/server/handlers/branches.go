package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BuildAppolis/env-manager-sub001/internal/store"
	"github.com/BuildAppolis/env-manager-sub001/internal/validation"
	"github.com/BuildAppolis/env-manager-sub001/pkg/api"
)

// BranchesHandler serves branch listing and copying.
type BranchesHandler struct {
	logger *slog.Logger
	db     *store.EnvDatabase
}

// NewBranchesHandler creates the branches handler.
func NewBranchesHandler(logger *slog.Logger, db *store.EnvDatabase) *BranchesHandler {
	return &BranchesHandler{logger: logger, db: db}
}

// List handles GET /api/v1/branches.
func (h *BranchesHandler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.db.ListBranches()
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}
	sendJSON(h.logger, w, api.BranchesResponse{Branches: branches}, http.StatusOK)
}

// Copy handles POST /api/v1/branches/copy.
func (h *BranchesHandler) Copy(w http.ResponseWriter, r *http.Request) {
	var req api.CopyBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateBranchName(req.Source); err != nil {
		sendError(h.logger, w, "source: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateBranchName(req.Target); err != nil {
		sendError(h.logger, w, "target: "+err.Error(), http.StatusBadRequest)
		return
	}

	copied, err := h.db.CopyBranch(req.Source, req.Target)
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}
	sendJSON(h.logger, w, api.CopyBranchResponse{Copied: copied}, http.StatusOK)
}
