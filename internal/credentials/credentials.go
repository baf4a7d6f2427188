// Package credentials manages the user-global secure credential file.
// The variable store consumes it read-only at startup; only the CLI
// setup and rotate commands ever write it.
package credentials

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BuildAppolis/env-manager-sub001/internal/crypto"
)

// ErrNotFound is returned when no credential file exists at the
// resolved path. The store falls back to legacy in-document auth.
var ErrNotFound = errors.New("credential file not found")

// EnvPath overrides the default credential file location when set.
const EnvPath = "ENV_MANAGER_CREDENTIALS"

// File is the persisted credential document. The encryption key is the
// hex-encoded 32-byte AES key shared by every project store on this
// machine.
type File struct {
	PasswordHash  string     `json:"passwordHash"`
	Salt          string     `json:"salt"`
	EncryptionKey string     `json:"encryptionKey"`
	RecoveryHash  string     `json:"recoveryHash,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	RotatedAt     *time.Time `json:"rotatedAt,omitempty"`
}

// DefaultPath resolves the credential file location: the EnvPath
// override if set, otherwise <user config dir>/env-manager/credentials.json.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "env-manager", "credentials.json"), nil
}

// Load reads and parses the credential file.
// Returns ErrNotFound when the file does not exist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	if f.EncryptionKey == "" {
		return nil, fmt.Errorf("credential file has no encryption key")
	}
	return &f, nil
}

// Key decodes the stored encryption key.
func (f *File) Key() ([]byte, error) {
	key, err := hex.DecodeString(f.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	if len(key) != crypto.KeyLen {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", crypto.KeyLen, len(key))
	}
	return key, nil
}

// Verify checks the master password against the stored hash.
func (f *File) Verify(password string) error {
	return crypto.VerifyPassword(password, f.Salt, f.PasswordHash)
}

// Create builds a fresh credential set from a master password. The
// encryption key is derived from the password so a machine loss is
// recoverable from the password alone. An optional recovery phrase is
// hashed with the same salt.
func Create(password, recoveryPhrase string) (*File, error) {
	saltHex, err := crypto.GenerateSaltHex()
	if err != nil {
		return nil, err
	}
	hash, err := crypto.HashPassword(password, saltHex)
	if err != nil {
		return nil, err
	}
	key, err := crypto.DeriveKey(password, saltHex)
	if err != nil {
		return nil, err
	}

	f := &File{
		PasswordHash:  hash,
		Salt:          saltHex,
		EncryptionKey: hex.EncodeToString(key),
		CreatedAt:     time.Now().UTC(),
	}
	if recoveryPhrase != "" {
		recoveryHash, err := crypto.HashPassword(recoveryPhrase, saltHex)
		if err != nil {
			return nil, err
		}
		f.RecoveryHash = recoveryHash
	}
	return f, nil
}

// Rotate derives a new salt, hash and key from a new password,
// preserving CreatedAt and stamping RotatedAt. The caller is
// responsible for re-encrypting stored values under the new key.
func (f *File) Rotate(newPassword string) (*File, error) {
	rotated, err := Create(newPassword, "")
	if err != nil {
		return nil, err
	}
	rotated.RecoveryHash = f.RecoveryHash
	rotated.CreatedAt = f.CreatedAt
	now := time.Now().UTC()
	rotated.RotatedAt = &now
	return rotated, nil
}

// Save writes the credential file with owner-only permissions,
// creating the parent directory when needed.
func Save(path string, f *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential dir: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}
