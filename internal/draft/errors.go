package draft

import "errors"

// Common draft errors
var (
	// ErrNoDraft indicates an operation that needs an active draft
	// was called while none exists
	ErrNoDraft = errors.New("no active draft")

	// ErrNoChanges indicates a publish was attempted with zero staged
	// changes
	ErrNoChanges = errors.New("draft has no changes")

	// ErrVersionNotFound indicates the version id does not exist in
	// the published history
	ErrVersionNotFound = errors.New("version not found")
)
