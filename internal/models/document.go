package models

import (
	"encoding/json"
	"time"
)

// AuthState is the legacy in-document authentication block, used only
// when no user-global credential file exists. PasswordHash and Salt are
// empty until the first successful Authenticate call bootstraps them.
type AuthState struct {
	IsAuthenticated bool       `json:"isAuthenticated"`
	PasswordHash    string     `json:"passwordHash,omitempty"`
	Salt            string     `json:"salt,omitempty"`
	LastAuth        *time.Time `json:"lastAuth,omitempty"`
}

// Document is the single JSON artifact a project's store persists.
// Unknown or missing fields default; there is no schema migration.
// HotReload belongs to the web UI layer and is round-tripped untouched.
type Document struct {
	Variables []Variable                 `json:"variables"`
	History   []HistoryEntry             `json:"history"`
	Snapshots []Snapshot                 `json:"snapshots"`
	Auth      AuthState                  `json:"auth"`
	Metadata  map[string]json.RawMessage `json:"metadata"`
	HotReload json.RawMessage            `json:"hotReload,omitempty"`
}

// NewDocument returns an empty document with all collections allocated,
// so a freshly created store serializes with explicit empty arrays.
func NewDocument() *Document {
	return &Document{
		Variables: []Variable{},
		History:   []HistoryEntry{},
		Snapshots: []Snapshot{},
		Metadata:  map[string]json.RawMessage{},
	}
}
