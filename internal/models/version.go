package models

import "time"

// ChangeType classifies a staged or published variable change.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// VersionChange is one variable-level change recorded by a publish.
// NewValue is absent for delete-type changes; OldValue is absent for
// creates. Both are the values captured at staging time. Sensitive
// change values are sealed with the store key before the entry is
// persisted; Encrypted marks that state, like Variable.Encrypted.
type VersionChange struct {
	Name      string     `json:"name"`
	Type      ChangeType `json:"type"`
	OldValue  *string    `json:"oldValue,omitempty"`
	NewValue  *string    `json:"newValue,omitempty"`
	Sensitive bool       `json:"sensitive"`
	Encrypted bool       `json:"encrypted,omitempty"`
}

// VersionEntry is produced only by publishing a draft. The list is
// stored newest-first and persisted through the store's metadata
// channel so it survives process restarts, unlike the draft itself.
type VersionEntry struct {
	ID            string          `json:"id"`
	Version       string          `json:"version"`
	Description   string          `json:"description,omitempty"`
	Author        string          `json:"author,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	VariableCount int             `json:"variableCount"`
	Changes       []VersionChange `json:"changes"`
	Published     bool            `json:"published"`
}
