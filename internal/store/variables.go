package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/BuildAppolis/env-manager-sub001/internal/crypto"
	"github.com/BuildAppolis/env-manager-sub001/internal/models"
)

// SetVariable upserts a variable by (name, branch). CreatedAt is
// preserved across updates, the value is encrypted when the metadata
// marks it sensitive and a key is available, and a create/update
// history entry is appended. The document is persisted before return.
func (db *EnvDatabase) SetVariable(name, value string, meta models.Metadata) (*models.Variable, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("variable name cannot be empty")
	}

	v, err := db.setVariableLocked(name, value, meta)
	if err != nil {
		return nil, err
	}
	if err := db.persist(); err != nil {
		return nil, err
	}
	return v, nil
}

func (db *EnvDatabase) setVariableLocked(name, value string, meta models.Metadata) (*models.Variable, error) {
	branch := meta.Branch
	if branch == "" {
		branch = models.DefaultBranch
	}

	now := time.Now().UTC()
	stored := models.Variable{
		Name:        name,
		Value:       value,
		Category:    meta.Category,
		Description: meta.Description,
		Sensitive:   meta.Sensitive,
		Branch:      branch,
		Environment: meta.Environment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Sensitive without a key stays plaintext but keeps the sensitive
	// flag, so it is still masked on display
	if meta.Sensitive && db.key != nil {
		encrypted, err := crypto.EncryptValue(value, db.key)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt value: %w", err)
		}
		stored.Value = encrypted
		stored.Encrypted = true
	}

	idx := db.findLocked(name, branch)
	if idx >= 0 {
		old := db.doc.Variables[idx]
		stored.CreatedAt = old.CreatedAt
		db.doc.Variables[idx] = stored
		db.appendHistoryLocked(models.ActionUpdate, name, strPtr(old.Value), strPtr(stored.Value))
	} else {
		db.doc.Variables = append(db.doc.Variables, stored)
		db.appendHistoryLocked(models.ActionCreate, name, nil, strPtr(stored.Value))
	}

	db.logger.Debug("variable set",
		slog.String("name", name),
		slog.String("branch", branch),
		slog.Bool("sensitive", stored.Sensitive),
		slog.Bool("encrypted", stored.Encrypted))

	return &stored, nil
}

// findLocked returns the index of the live record for (name, branch),
// or -1.
func (db *EnvDatabase) findLocked(name, branch string) int {
	for i, v := range db.doc.Variables {
		if v.Name == name && v.EffectiveBranch() == branch {
			return i
		}
	}
	return -1
}

// GetVariable looks up a single variable by name, branch-unaware, and
// transparently decrypts it. A failed decrypt yields the sentinel value
// rather than an error so display paths keep working.
func (db *EnvDatabase) GetVariable(name string) (*models.Variable, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return nil, err
	}

	for _, v := range db.doc.Variables {
		if v.Name == name {
			resolved := db.decryptForDisplayLocked(v)
			return &resolved, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrVariableNotFound, name)
}

// decryptLocked returns the plaintext form of a variable. Unlike the
// display path it surfaces decryption failures to the caller.
func (db *EnvDatabase) decryptLocked(v models.Variable) (models.Variable, error) {
	if !v.Encrypted {
		return v, nil
	}
	if db.key == nil {
		return v, fmt.Errorf("%w: no encryption key available", ErrDecryptionFailed)
	}
	plaintext, err := crypto.DecryptValue(v.Value, db.key)
	if err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrDecryptionFailed, v.Name, err)
	}
	v.Value = plaintext
	return v, nil
}

// SealValue encrypts a value with the store's key for at-rest storage
// outside the variables list (version history change records). Without
// key material the value passes through unchanged, mirroring how
// sensitive variables are stored before a key exists; the returned
// bool reports whether encryption happened.
func (db *EnvDatabase) SealValue(value string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.key == nil {
		return value, false, nil
	}
	sealed, err := crypto.EncryptValue(value, db.key)
	if err != nil {
		return "", false, err
	}
	return sealed, true, nil
}

// OpenValue reverses SealValue for a value that was sealed with the
// current key.
func (db *EnvDatabase) OpenValue(value string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.key == nil {
		return "", fmt.Errorf("%w: no encryption key available", ErrDecryptionFailed)
	}
	plaintext, err := crypto.DecryptValue(value, db.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// decryptForDisplayLocked converts a decryption failure into the
// sentinel value at the listing boundary, logging the real cause.
func (db *EnvDatabase) decryptForDisplayLocked(v models.Variable) models.Variable {
	resolved, err := db.decryptLocked(v)
	if err != nil {
		db.logger.Warn("failed to decrypt variable",
			slog.String("name", v.Name), slog.Any("error", err))
		resolved.Value = models.DecryptionFailedSentinel
	}
	return resolved
}

// GetAllVariables returns the branch-resolved variable set, decrypted.
// For a branch other than the default, the default branch's variables
// are merged in with the branch's own records taking precedence per
// name; classification fields the branch left empty inherit from the
// default record.
func (db *EnvDatabase) GetAllVariables(branch string) ([]models.Variable, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return nil, err
	}

	resolved := db.resolveBranchLocked(branch)
	out := make([]models.Variable, 0, len(resolved))
	for _, v := range resolved {
		out = append(out, db.decryptForDisplayLocked(v))
	}
	return out, nil
}

// resolveBranchLocked merges the default branch set with the requested
// branch's overrides. Values stay in stored (possibly encrypted) form.
func (db *EnvDatabase) resolveBranchLocked(branch string) []models.Variable {
	if branch == "" {
		branch = models.DefaultBranch
	}

	merged := map[string]models.Variable{}
	var order []string
	for _, v := range db.doc.Variables {
		if v.EffectiveBranch() != models.DefaultBranch {
			continue
		}
		merged[v.Name] = v
		order = append(order, v.Name)
	}

	if branch != models.DefaultBranch {
		for _, v := range db.doc.Variables {
			if v.EffectiveBranch() != branch {
				continue
			}
			if base, ok := merged[v.Name]; ok {
				if v.Category == "" {
					v.Category = base.Category
				}
				if v.Description == "" {
					v.Description = base.Description
				}
			} else {
				order = append(order, v.Name)
			}
			merged[v.Name] = v
		}
	}

	out := make([]models.Variable, 0, len(order))
	for _, name := range order {
		out = append(out, merged[name])
	}
	return out
}

// DeleteVariable removes the live record by name (branch-unaware) and
// appends a delete history entry retaining the old value for audit.
// Reports whether a record existed.
func (db *EnvDatabase) DeleteVariable(name string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return false, err
	}

	for i, v := range db.doc.Variables {
		if v.Name == name {
			db.doc.Variables = append(db.doc.Variables[:i], db.doc.Variables[i+1:]...)
			db.appendHistoryLocked(models.ActionDelete, name, strPtr(v.Value), nil)
			if err := db.persist(); err != nil {
				return false, err
			}
			db.logger.Debug("variable deleted", slog.String("name", name))
			return true, nil
		}
	}
	return false, nil
}

// VariableCount returns the number of live records across all branches.
func (db *EnvDatabase) VariableCount() (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return 0, err
	}
	return len(db.doc.Variables), nil
}

// ListBranches returns every branch with at least one variable, the
// default branch first, the rest sorted.
func (db *EnvDatabase) ListBranches() ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var rest []string
	for _, v := range db.doc.Variables {
		b := v.EffectiveBranch()
		if !seen[b] {
			seen[b] = true
			if b != models.DefaultBranch {
				rest = append(rest, b)
			}
		}
	}
	sort.Strings(rest)

	out := []string{}
	if seen[models.DefaultBranch] {
		out = append(out, models.DefaultBranch)
	}
	return append(out, rest...), nil
}

// CopyBranch writes the resolved variable set of source onto target as
// branch-scoped records, re-encrypting sensitive values. Returns the
// number of variables copied.
func (db *EnvDatabase) CopyBranch(source, target string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return 0, err
	}
	if target == "" {
		return 0, fmt.Errorf("target branch cannot be empty")
	}

	resolved := db.resolveBranchLocked(source)
	if len(resolved) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrBranchNotFound, source)
	}

	copied := 0
	for _, v := range resolved {
		plain, err := db.decryptLocked(v)
		if err != nil {
			return copied, err
		}
		_, err = db.setVariableLocked(plain.Name, plain.Value, models.Metadata{
			Category:    plain.Category,
			Description: plain.Description,
			Sensitive:   plain.Sensitive,
			Branch:      target,
			Environment: plain.Environment,
		})
		if err != nil {
			return copied, err
		}
		copied++
	}

	if err := db.persist(); err != nil {
		return copied, err
	}
	db.logger.Info("branch copied",
		slog.String("source", source), slog.String("target", target),
		slog.Int("variables", copied))
	return copied, nil
}

// Reencrypt decrypts every encrypted value with the current key and
// re-encrypts it under newKey, then adopts newKey. Used by credential
// rotation; a variable that no longer decrypts aborts the rotation so
// no value is silently lost.
func (db *EnvDatabase) Reencrypt(newKey []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return err
	}
	if len(newKey) != crypto.KeyLen {
		return fmt.Errorf("new key must be %d bytes, got %d", crypto.KeyLen, len(newKey))
	}

	for i, v := range db.doc.Variables {
		if !v.Encrypted {
			continue
		}
		plain, err := db.decryptLocked(v)
		if err != nil {
			return fmt.Errorf("cannot rotate %s: %w", v.Name, err)
		}
		encrypted, err := crypto.EncryptValue(plain.Value, newKey)
		if err != nil {
			return fmt.Errorf("failed to re-encrypt %s: %w", v.Name, err)
		}
		db.doc.Variables[i].Value = encrypted
	}

	db.key = newKey
	return db.persist()
}

func strPtr(s string) *string {
	return &s
}

// IsDecryptionFailure reports whether err is the recoverable decrypt
// error family.
func IsDecryptionFailure(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}
