// Package api holds the JSON request/response types shared by the HTTP
// server and its clients.
package api

import "github.com/BuildAppolis/env-manager-sub001/internal/models"

// AuthStatusResponse reports whether the current caller may operate on
// the store and whether a master password exists at all.
type AuthStatusResponse struct {
	Authenticated      bool `json:"authenticated"`
	PasswordConfigured bool `json:"passwordConfigured"`
}

// LoginRequest carries the master password.
type LoginRequest struct {
	Password string `json:"password"`
}

// TokenResponse is returned on a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// SetVariableRequest creates or updates one variable.
type SetVariableRequest struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Sensitive   bool   `json:"sensitive,omitempty"`
	Branch      string `json:"branch,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// VariablesResponse lists branch-resolved variables.
type VariablesResponse struct {
	Branch    string            `json:"branch"`
	Variables []models.Variable `json:"variables"`
}

// DeleteVariableResponse reports whether a record existed.
type DeleteVariableResponse struct {
	Deleted bool `json:"deleted"`
}

// HistoryResponse carries the audit log, newest first.
type HistoryResponse struct {
	History []models.HistoryEntry `json:"history"`
}

// CreateSnapshotRequest names a new snapshot.
type CreateSnapshotRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SnapshotsResponse lists snapshots without their variable payloads.
type SnapshotsResponse struct {
	Snapshots []SnapshotSummary `json:"snapshots"`
}

// SnapshotSummary is a snapshot header for listings.
type SnapshotSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"createdAt"`
	VariableCount int    `json:"variableCount"`
}

// BranchesResponse lists branches with variables.
type BranchesResponse struct {
	Branches []string `json:"branches"`
}

// CopyBranchRequest copies one branch's resolved set onto another.
type CopyBranchRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// CopyBranchResponse reports how many variables were copied.
type CopyBranchResponse struct {
	Copied int `json:"copied"`
}

// StageChangeRequest stages one draft change.
type StageChangeRequest struct {
	Name        string            `json:"name"`
	Value       string            `json:"value,omitempty"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Sensitive   bool              `json:"sensitive,omitempty"`
	Branch      string            `json:"branch,omitempty"`
	ChangeType  models.ChangeType `json:"changeType"`
}

// DraftResponse describes the active draft.
type DraftResponse struct {
	HasDraft bool                   `json:"hasDraft"`
	Changes  []models.VersionChange `json:"changes"`
}

// PublishRequest labels the draft before it is published.
type PublishRequest struct {
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
}

// VersionsResponse carries the published version history, newest first.
type VersionsResponse struct {
	Versions []models.VersionEntry `json:"versions"`
}

// ExportResponse reports the env files written to the project root.
type ExportResponse struct {
	Files []string `json:"files"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
