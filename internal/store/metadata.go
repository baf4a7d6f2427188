package store

import (
	"encoding/json"
	"fmt"
)

// The metadata channel is a free-form typed key-value slot on the
// document. Higher layers (version history, UI state) persist their own
// records through it without the store knowing their shape.

// SetMetadata marshals value under key and persists the document.
func (db *EnvDatabase) SetMetadata(key string, value any) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("metadata key cannot be empty")
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata %q: %w", key, err)
	}
	db.doc.Metadata[key] = raw
	return db.persist()
}

// GetMetadata unmarshals the value stored under key into out.
// Returns ErrMetadataNotFound when the key is absent.
func (db *EnvDatabase) GetMetadata(key string, out any) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return err
	}

	raw, ok := db.doc.Metadata[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMetadataNotFound, key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal metadata %q: %w", key, err)
	}
	return nil
}

// DeleteMetadata removes the value under key, if any.
func (db *EnvDatabase) DeleteMetadata(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return err
	}

	if _, ok := db.doc.Metadata[key]; !ok {
		return nil
	}
	delete(db.doc.Metadata, key)
	return db.persist()
}
