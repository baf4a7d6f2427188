// Package store implements the JSON-backed variable store: an
// authenticated document of environment variables with audit history,
// snapshots and a generic metadata side channel.
package store

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/credentials"
	"github.com/BuildAppolis/env-manager-sub001/internal/crypto"
	"github.com/BuildAppolis/env-manager-sub001/internal/models"
)

// EnvDatabase owns one project's persisted document and is its sole
// writer. All operations are serialized by an internal mutex; there is
// no cross-process coordination (last writer wins at the file level).
type EnvDatabase struct {
	mu     sync.Mutex
	logger *slog.Logger

	path string
	doc  *models.Document

	// key is the symmetric encryption key, nil when no key material is
	// available yet (legacy mode before the first Authenticate call)
	key []byte

	// authenticated is set by credential-file adoption or Authenticate
	authenticated bool

	// globalCreds holds the adopted user-global credentials, nil in
	// legacy in-document mode
	globalCreds *credentials.File
}

// Open loads (or initializes) the document at path. When creds is
// non-nil the store adopts the global encryption key and is considered
// authenticated without a password; otherwise it runs in legacy mode
// keyed off the document's own auth block.
func Open(path string, creds *credentials.File, logger *slog.Logger) (*EnvDatabase, error) {
	if logger == nil {
		logger = slog.Default()
	}

	doc, err := loadDocument(path)
	if err != nil {
		return nil, err
	}

	db := &EnvDatabase{
		logger: logger.With(slog.String("component", "store")),
		path:   path,
		doc:    doc,
	}

	if creds != nil {
		key, err := creds.Key()
		if err != nil {
			return nil, fmt.Errorf("failed to adopt global credentials: %w", err)
		}
		db.key = key
		db.authenticated = true
		db.globalCreds = creds
		db.logger.Debug("adopted global credentials")
	}

	return db, nil
}

func loadDocument(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewDocument(), nil
		}
		return nil, fmt.Errorf("failed to read database file: %w", err)
	}

	doc := models.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse database file: %w", err)
	}
	// Missing fields default to empty collections
	if doc.Variables == nil {
		doc.Variables = []models.Variable{}
	}
	if doc.History == nil {
		doc.History = []models.HistoryEntry{}
	}
	if doc.Snapshots == nil {
		doc.Snapshots = []models.Snapshot{}
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]json.RawMessage{}
	}
	return doc, nil
}

// persist writes the whole document back to disk. Every mutating
// operation calls this before returning; a failed write means the
// operation is not committed.
func (db *EnvDatabase) persist() error {
	if err := os.MkdirAll(filepath.Dir(db.path), 0o700); err != nil {
		return fmt.Errorf("failed to create database dir: %w", err)
	}
	data, err := json.MarshalIndent(db.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal database: %w", err)
	}
	if err := os.WriteFile(db.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write database file: %w", err)
	}
	return nil
}

// Path returns the backing document location.
func (db *EnvDatabase) Path() string {
	return db.path
}

// IsAuthenticated reports whether operations are currently permitted.
// When no password has ever been configured (no global credentials and
// no in-document hash) it returns true: the first-run convenience
// default is deliberate and must stay.
func (db *EnvDatabase) IsAuthenticated() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.isAuthenticatedLocked()
}

func (db *EnvDatabase) isAuthenticatedLocked() bool {
	if db.authenticated {
		return true
	}
	return db.globalCreds == nil && db.doc.Auth.PasswordHash == ""
}

// PasswordConfigured reports whether any master password exists, either
// globally or bootstrapped into this document.
func (db *EnvDatabase) PasswordConfigured() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.globalCreds != nil || db.doc.Auth.PasswordHash != ""
}

// Authenticate verifies the master password. In legacy mode the first
// successful call bootstraps a salt, password hash and derived key into
// the document; later calls must match the stored hash.
func (db *EnvDatabase) Authenticate(password string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if password == "" {
		return fmt.Errorf("%w: empty password", ErrInvalidPassword)
	}

	if db.globalCreds != nil {
		if err := db.globalCreds.Verify(password); err != nil {
			db.logger.Warn("authentication failed against global credentials")
			return ErrInvalidPassword
		}
		db.authenticated = true
		return db.touchAuthLocked()
	}

	if db.doc.Auth.PasswordHash == "" {
		// First run: bootstrap legacy in-document credentials
		saltHex, err := crypto.GenerateSaltHex()
		if err != nil {
			return err
		}
		hash, err := crypto.HashPassword(password, saltHex)
		if err != nil {
			return err
		}
		key, err := crypto.DeriveKey(password, saltHex)
		if err != nil {
			return err
		}

		db.doc.Auth.Salt = saltHex
		db.doc.Auth.PasswordHash = hash
		db.key = key
		db.authenticated = true
		db.logger.Info("bootstrapped master password")
		return db.touchAuthLocked()
	}

	if err := crypto.VerifyPassword(password, db.doc.Auth.Salt, db.doc.Auth.PasswordHash); err != nil {
		db.logger.Warn("authentication failed")
		return ErrInvalidPassword
	}
	key, err := crypto.DeriveKey(password, db.doc.Auth.Salt)
	if err != nil {
		return err
	}
	db.key = key
	db.authenticated = true
	return db.touchAuthLocked()
}

func (db *EnvDatabase) touchAuthLocked() error {
	now := time.Now().UTC()
	db.doc.Auth.IsAuthenticated = true
	db.doc.Auth.LastAuth = &now
	return db.persist()
}

// requireAuthLocked gates every operation except IsAuthenticated and
// Authenticate themselves.
func (db *EnvDatabase) requireAuthLocked() error {
	if !db.isAuthenticatedLocked() {
		return ErrNotAuthenticated
	}
	return nil
}

// newHistoryID returns a monotonic ULID so the audit log sorts
// chronologically by id.
func newHistoryID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		// rand.Reader does not fail in practice
		return ulid.Make().String()
	}
	return id.String()
}

func (db *EnvDatabase) appendHistoryLocked(action models.HistoryAction, name string, oldValue, newValue *string) {
	db.doc.History = append(db.doc.History, models.HistoryEntry{
		ID:           newHistoryID(),
		Action:       action,
		VariableName: name,
		OldValue:     oldValue,
		NewValue:     newValue,
		Timestamp:    time.Now().UTC(),
	})
}

// GetHistory returns the audit log newest-first.
func (db *EnvDatabase) GetHistory() ([]models.HistoryEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return nil, err
	}

	out := make([]models.HistoryEntry, len(db.doc.History))
	for i, entry := range db.doc.History {
		out[len(db.doc.History)-1-i] = entry
	}
	return out, nil
}
