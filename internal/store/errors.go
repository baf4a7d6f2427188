package store

import "errors"

// Common store errors
var (
	// ErrNotAuthenticated indicates an operation was attempted before
	// a successful Authenticate call
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidPassword indicates the supplied master password does
	// not match the stored hash
	ErrInvalidPassword = errors.New("invalid password")

	// ErrVariableNotFound indicates the named variable does not exist
	ErrVariableNotFound = errors.New("variable not found")

	// ErrSnapshotNotFound indicates the snapshot id does not exist
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrMetadataNotFound indicates no metadata exists under the key
	ErrMetadataNotFound = errors.New("metadata not found")

	// ErrDecryptionFailed indicates a sensitive value could not be
	// decrypted (key mismatch after rotation, corrupted ciphertext).
	// Recoverable: the listing boundary substitutes a sentinel value.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrBranchNotFound indicates a branch copy source has no variables
	ErrBranchNotFound = errors.New("branch not found")
)
