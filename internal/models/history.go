package models

import "time"

// HistoryAction classifies an audit log entry.
type HistoryAction string

const (
	ActionCreate  HistoryAction = "create"
	ActionUpdate  HistoryAction = "update"
	ActionDelete  HistoryAction = "delete"
	ActionRestore HistoryAction = "restore"
)

// HistoryEntry is one record of the append-only audit log.
// Entries are never mutated or deleted; the log grows unbounded.
// IDs are ULIDs so the log sorts chronologically by id.
type HistoryEntry struct {
	ID           string        `json:"id"`
	Action       HistoryAction `json:"action"`
	VariableName string        `json:"variableName"`
	OldValue     *string       `json:"oldValue,omitempty"`
	NewValue     *string       `json:"newValue,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Snapshot is a named, immutable deep copy of the entire variable set
// at a point in time.
type Snapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Variables   []Variable `json:"variables"`
}
