package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BuildAppolis/env-manager-sub001/internal/draft"
	"github.com/BuildAppolis/env-manager-sub001/internal/models"
	"github.com/BuildAppolis/env-manager-sub001/internal/validation"
	"github.com/BuildAppolis/env-manager-sub001/pkg/api"
)

// DraftHandler serves the staging workflow and the version history.
type DraftHandler struct {
	logger *slog.Logger
	drafts *draft.Manager
}

// NewDraftHandler creates the draft handler.
func NewDraftHandler(logger *slog.Logger, drafts *draft.Manager) *DraftHandler {
	return &DraftHandler{logger: logger, drafts: drafts}
}

// Get handles GET /api/v1/draft.
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	sendJSON(h.logger, w, api.DraftResponse{
		HasDraft: h.drafts.HasDraft(),
		Changes:  h.drafts.GetDraftChanges(),
	}, http.StatusOK)
}

// Stage handles POST /api/v1/draft/variables.
func (h *DraftHandler) Stage(w http.ResponseWriter, r *http.Request) {
	var req api.StageChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateVariableName(req.Name); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.drafts.AddVariable(req.Name, req.Value, models.Metadata{
		Category:    req.Category,
		Description: req.Description,
		Sensitive:   req.Sensitive,
		Branch:      req.Branch,
	}, req.ChangeType)
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.DraftResponse{
		HasDraft: h.drafts.HasDraft(),
		Changes:  h.drafts.GetDraftChanges(),
	}, http.StatusOK)
}

// Publish handles POST /api/v1/draft/publish.
func (h *DraftHandler) Publish(w http.ResponseWriter, r *http.Request) {
	// The label is optional; an unlabeled publish keeps the draft's
	// original description
	if r.ContentLength > 0 {
		var req api.PublishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := h.drafts.SetLabel(req.Description, req.Author); err != nil && !errors.Is(err, draft.ErrNoDraft) {
			sendStoreError(h.logger, w, err)
			return
		}
	}

	version, err := h.drafts.PublishDraft()
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}
	sendJSON(h.logger, w, version, http.StatusOK)
}

// Discard handles DELETE /api/v1/draft.
func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.drafts.DiscardDraft()
	sendJSON(h.logger, w, map[string]string{"status": "discarded"}, http.StatusOK)
}

// Versions handles GET /api/v1/versions.
func (h *DraftHandler) Versions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.drafts.GetVersionHistory()
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}
	sendJSON(h.logger, w, api.VersionsResponse{Versions: versions}, http.StatusOK)
}

// RestoreVersion handles POST /api/v1/versions/{id}/restore. It stages
// a restore draft; the caller reviews and publishes it separately.
func (h *DraftHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.drafts.RestoreFromVersion(id); err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.DraftResponse{
		HasDraft: true,
		Changes:  h.drafts.GetDraftChanges(),
	}, http.StatusOK)
}
