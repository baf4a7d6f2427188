package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BuildAppolis/env-manager-sub001/internal/models"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
	"github.com/BuildAppolis/env-manager-sub001/internal/validation"
	"github.com/BuildAppolis/env-manager-sub001/pkg/api"
)

// VariablesHandler serves variable CRUD and the audit log.
type VariablesHandler struct {
	logger *slog.Logger
	db     *store.EnvDatabase
}

// NewVariablesHandler creates the variables handler.
func NewVariablesHandler(logger *slog.Logger, db *store.EnvDatabase) *VariablesHandler {
	return &VariablesHandler{logger: logger, db: db}
}

// List handles GET /api/v1/variables?branch=.
func (h *VariablesHandler) List(w http.ResponseWriter, r *http.Request) {
	branch := r.URL.Query().Get("branch")
	if branch == "" {
		branch = models.DefaultBranch
	}

	variables, err := h.db.GetAllVariables(branch)
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.VariablesResponse{
		Branch:    branch,
		Variables: variables,
	}, http.StatusOK)
}

// Set handles POST /api/v1/variables.
func (h *VariablesHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req api.SetVariableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateVariableName(req.Name); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Branch != "" {
		if err := validation.ValidateBranchName(req.Branch); err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	variable, err := h.db.SetVariable(req.Name, req.Value, models.Metadata{
		Category:    req.Category,
		Description: req.Description,
		Sensitive:   req.Sensitive,
		Branch:      req.Branch,
		Environment: req.Environment,
	})
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, variable, http.StatusOK)
}

// Delete handles DELETE /api/v1/variables/{name}.
func (h *VariablesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		sendError(h.logger, w, "variable name is required", http.StatusBadRequest)
		return
	}

	deleted, err := h.db.DeleteVariable(name)
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.DeleteVariableResponse{Deleted: deleted}, http.StatusOK)
}

// History handles GET /api/v1/history.
func (h *VariablesHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.db.GetHistory()
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.HistoryResponse{History: history}, http.StatusOK)
}
