package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuildAppolis/env-manager-sub001/internal/credentials"
	"github.com/BuildAppolis/env-manager-sub001/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestStore opens a fresh legacy-mode store backed by a temp file.
func newTestStore(t *testing.T) *EnvDatabase {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "env-db.json"), nil, testLogger())
	require.NoError(t, err)
	return db
}

func TestFirstRunConvenience(t *testing.T) {
	db := newTestStore(t)

	// No password was ever configured: the store is usable immediately
	assert.True(t, db.IsAuthenticated())
	assert.False(t, db.PasswordConfigured())

	_, err := db.SetVariable("FOO", "bar", models.Metadata{})
	require.NoError(t, err)

	v, err := db.GetVariable("FOO")
	require.NoError(t, err)
	assert.Equal(t, "bar", v.Value)
}

func TestSensitiveWithoutKeyStaysPlaintext(t *testing.T) {
	db := newTestStore(t)

	v, err := db.SetVariable("SECRET", "s3cret", models.Metadata{Sensitive: true})
	require.NoError(t, err)

	// No key material exists yet, so the value cannot be encrypted but
	// must still be flagged sensitive for masked display
	assert.True(t, v.Sensitive)
	assert.False(t, v.Encrypted)
	assert.Equal(t, "s3cret", v.Value)
}

func TestAuthenticateBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env-db.json")
	db, err := Open(path, nil, testLogger())
	require.NoError(t, err)

	require.NoError(t, db.Authenticate("correct-horse"))
	assert.True(t, db.IsAuthenticated())
	assert.True(t, db.PasswordConfigured())

	// A second process must present the bootstrapped password
	reopened, err := Open(path, nil, testLogger())
	require.NoError(t, err)
	assert.False(t, reopened.IsAuthenticated())

	_, err = reopened.GetAllVariables("")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.ErrorIs(t, reopened.Authenticate("wrong-horse"), ErrInvalidPassword)
	require.NoError(t, reopened.Authenticate("correct-horse"))
	assert.True(t, reopened.IsAuthenticated())
}

func TestSensitiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env-db.json")
	db, err := Open(path, nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, db.Authenticate("correct-horse"))

	stored, err := db.SetVariable("DATABASE_URL", "postgres://x", models.Metadata{
		Sensitive: true,
		Category:  "database",
	})
	require.NoError(t, err)
	assert.True(t, stored.Encrypted)
	assert.NotEqual(t, "postgres://x", stored.Value)

	// The persisted document must not contain the plaintext either
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "postgres://x")

	// Reading back yields the original plaintext exactly
	v, err := db.GetVariable("DATABASE_URL")
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", v.Value)
	assert.True(t, v.Encrypted)
}

func TestPlainValueStoredVerbatim(t *testing.T) {
	db := newTestStore(t)
	require.NoError(t, db.Authenticate("pw"))

	stored, err := db.SetVariable("PORT", "3000", models.Metadata{Category: "server"})
	require.NoError(t, err)
	assert.Equal(t, "3000", stored.Value)
	assert.False(t, stored.Encrypted)
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	db := newTestStore(t)

	first, err := db.SetVariable("FOO", "1", models.Metadata{})
	require.NoError(t, err)

	second, err := db.SetVariable("FOO", "2", models.Metadata{Description: "counter"})
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "2", second.Value)

	all, err := db.GetAllVariables("")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBranchResolution(t *testing.T) {
	db := newTestStore(t)

	_, err := db.SetVariable("FOO", "1", models.Metadata{Description: "base"})
	require.NoError(t, err)
	_, err = db.SetVariable("FOO", "2", models.Metadata{Branch: "staging"})
	require.NoError(t, err)
	_, err = db.SetVariable("ONLY_MAIN", "m", models.Metadata{})
	require.NoError(t, err)

	main, err := db.GetAllVariables("main")
	require.NoError(t, err)
	require.Len(t, main, 2)
	assert.Equal(t, "1", valueOf(t, main, "FOO"))

	staging, err := db.GetAllVariables("staging")
	require.NoError(t, err)
	require.Len(t, staging, 2)
	assert.Equal(t, "2", valueOf(t, staging, "FOO"))
	// Variables defined only on main appear under every branch's view
	assert.Equal(t, "m", valueOf(t, staging, "ONLY_MAIN"))

	// Classification fields the branch left empty inherit from main
	for _, v := range staging {
		if v.Name == "FOO" {
			assert.Equal(t, "base", v.Description)
		}
	}

	// A branch never defined still resolves to the main set
	other, err := db.GetAllVariables("feature/x")
	require.NoError(t, err)
	assert.Len(t, other, 2)
	assert.Equal(t, "1", valueOf(t, other, "FOO"))
}

func valueOf(t *testing.T, vars []models.Variable, name string) string {
	t.Helper()
	for _, v := range vars {
		if v.Name == name {
			return v.Value
		}
	}
	t.Fatalf("variable %s not found", name)
	return ""
}

func TestEndToEndLifecycle(t *testing.T) {
	db := newTestStore(t)
	require.NoError(t, db.Authenticate("correct-horse"))

	_, err := db.SetVariable("DATABASE_URL", "postgres://x", models.Metadata{
		Sensitive: true,
		Category:  "database",
	})
	require.NoError(t, err)

	all, err := db.GetAllVariables("")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "postgres://x", all[0].Value)
	assert.True(t, all[0].Encrypted)

	existed, err := db.DeleteVariable("DATABASE_URL")
	require.NoError(t, err)
	assert.True(t, existed)

	all, err = db.GetAllVariables("")
	require.NoError(t, err)
	assert.Empty(t, all)

	history, err := db.GetHistory()
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first: the delete precedes the create
	assert.Equal(t, models.ActionDelete, history[0].Action)
	assert.Equal(t, models.ActionCreate, history[1].Action)
	require.NotNil(t, history[0].OldValue)
	assert.Nil(t, history[0].NewValue)
}

func TestDeleteMissingVariable(t *testing.T) {
	db := newTestStore(t)

	existed, err := db.DeleteVariable("NEVER_SET")
	require.NoError(t, err)
	assert.False(t, existed)

	history, err := db.GetHistory()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	db := newTestStore(t)

	_, err := db.SetVariable("FOO", "1", models.Metadata{})
	require.NoError(t, err)

	snap, err := db.CreateSnapshot("before-change", "")
	require.NoError(t, err)

	_, err = db.SetVariable("FOO", "2", models.Metadata{})
	require.NoError(t, err)
	_, err = db.SetVariable("BAR", "3", models.Metadata{})
	require.NoError(t, err)

	before, err := db.GetSnapshots()
	require.NoError(t, err)

	require.NoError(t, db.RestoreSnapshot(snap.ID))

	// The exact variable set at snapshot time is back
	all, err := db.GetAllVariables("")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "1", all[0].Value)

	// Exactly one new backup snapshot was left behind
	after, err := db.GetSnapshots()
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	// One restore history entry was appended
	history, err := db.GetHistory()
	require.NoError(t, err)
	assert.Equal(t, models.ActionRestore, history[0].Action)
}

func TestRestoreSnapshotNotFound(t *testing.T) {
	db := newTestStore(t)
	assert.ErrorIs(t, db.RestoreSnapshot("no-such-id"), ErrSnapshotNotFound)
}

func TestDeleteSnapshot(t *testing.T) {
	db := newTestStore(t)

	snap, err := db.CreateSnapshot("s", "")
	require.NoError(t, err)
	require.NoError(t, db.DeleteSnapshot(snap.ID))

	snaps, err := db.GetSnapshots()
	require.NoError(t, err)
	assert.Empty(t, snaps)

	assert.ErrorIs(t, db.DeleteSnapshot(snap.ID), ErrSnapshotNotFound)
}

func TestMetadataChannel(t *testing.T) {
	db := newTestStore(t)

	type record struct {
		Count int    `json:"count"`
		Note  string `json:"note"`
	}

	require.NoError(t, db.SetMetadata("ui-state", record{Count: 3, Note: "hi"}))

	var out record
	require.NoError(t, db.GetMetadata("ui-state", &out))
	assert.Equal(t, record{Count: 3, Note: "hi"}, out)

	assert.ErrorIs(t, db.GetMetadata("missing", &out), ErrMetadataNotFound)

	require.NoError(t, db.DeleteMetadata("ui-state"))
	assert.ErrorIs(t, db.GetMetadata("ui-state", &out), ErrMetadataNotFound)

	// Deleting an absent key is a no-op
	require.NoError(t, db.DeleteMetadata("missing"))
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env-db.json")
	db, err := Open(path, nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, db.Authenticate("correct-horse"))

	_, err = db.SetVariable("TOKEN", "secret", models.Metadata{Sensitive: true})
	require.NoError(t, err)
	_, err = db.CreateSnapshot("s1", "")
	require.NoError(t, err)

	reopened, err := Open(path, nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, reopened.Authenticate("correct-horse"))

	v, err := reopened.GetVariable("TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "secret", v.Value)

	snaps, err := reopened.GetSnapshots()
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	history, err := reopened.GetHistory()
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDecryptionFailureSentinel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env-db.json")
	db, err := Open(path, nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, db.Authenticate("old-password"))

	_, err = db.SetVariable("SECRET", "value", models.Metadata{Sensitive: true})
	require.NoError(t, err)
	_, err = db.SetVariable("PLAIN", "ok", models.Metadata{})
	require.NoError(t, err)

	// Simulate a rotated-away key: wipe the auth block so a different
	// password bootstraps a different key over the same ciphertext
	var doc models.Document
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc.Auth = models.AuthState{}
	raw, err = json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	reopened, err := Open(path, nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, reopened.Authenticate("new-password"))

	// One corrupted variable must not make the listing unusable
	all, err := reopened.GetAllVariables("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.DecryptionFailedSentinel, valueOf(t, all, "SECRET"))
	assert.Equal(t, "ok", valueOf(t, all, "PLAIN"))
}

func TestGlobalCredentialAdoption(t *testing.T) {
	creds, err := credentials.Create("correct-horse", "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "env-db.json")
	db, err := Open(path, creds, testLogger())
	require.NoError(t, err)

	// Credential-file adoption authenticates without a password prompt
	assert.True(t, db.IsAuthenticated())
	assert.True(t, db.PasswordConfigured())

	stored, err := db.SetVariable("API_KEY", "k", models.Metadata{Sensitive: true})
	require.NoError(t, err)
	assert.True(t, stored.Encrypted)

	// The same credential file opens the ciphertext elsewhere
	other, err := Open(path, creds, testLogger())
	require.NoError(t, err)
	v, err := other.GetVariable("API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "k", v.Value)

	// The password still verifies against the global hash
	assert.ErrorIs(t, db.Authenticate("wrong"), ErrInvalidPassword)
	require.NoError(t, db.Authenticate("correct-horse"))
}

func TestReencrypt(t *testing.T) {
	creds, err := credentials.Create("old-password", "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "env-db.json")
	db, err := Open(path, creds, testLogger())
	require.NoError(t, err)

	_, err = db.SetVariable("SECRET", "value", models.Metadata{Sensitive: true})
	require.NoError(t, err)
	_, err = db.SetVariable("PLAIN", "p", models.Metadata{})
	require.NoError(t, err)

	rotated, err := creds.Rotate("new-password")
	require.NoError(t, err)
	newKey, err := rotated.Key()
	require.NoError(t, err)

	require.NoError(t, db.Reencrypt(newKey))

	// Values decrypt under the new key
	v, err := db.GetVariable("SECRET")
	require.NoError(t, err)
	assert.Equal(t, "value", v.Value)

	// A store opened with the old credentials now only sees the sentinel
	stale, err := Open(path, creds, testLogger())
	require.NoError(t, err)
	v, err = stale.GetVariable("SECRET")
	require.NoError(t, err)
	assert.Equal(t, models.DecryptionFailedSentinel, v.Value)
}

func TestListAndCopyBranches(t *testing.T) {
	db := newTestStore(t)

	_, err := db.SetVariable("FOO", "1", models.Metadata{Sensitive: true})
	require.NoError(t, err)
	_, err = db.SetVariable("BAR", "2", models.Metadata{Branch: "staging"})
	require.NoError(t, err)

	branches, err := db.ListBranches()
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "staging"}, branches)

	copied, err := db.CopyBranch("main", "production")
	require.NoError(t, err)
	assert.Equal(t, 1, copied)

	prod, err := db.GetAllVariables("production")
	require.NoError(t, err)
	assert.Equal(t, "1", valueOf(t, prod, "FOO"))

	branches, err = db.ListBranches()
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "production", "staging"}, branches)

	_, err = db.CopyBranch("nonexistent", "x")
	assert.ErrorIs(t, err, ErrBranchNotFound)
}

func TestGenerateEnvFiles(t *testing.T) {
	db := newTestStore(t)
	require.NoError(t, db.Authenticate("pw"))

	_, err := db.SetVariable("DATABASE_URL", "postgres://x", models.Metadata{
		Sensitive:   true,
		Category:    "database",
		Description: "primary database",
	})
	require.NoError(t, err)
	_, err = db.SetVariable("PORT", "3000", models.Metadata{Category: "server"})
	require.NoError(t, err)
	_, err = db.SetVariable("OPTIONAL", "", models.Metadata{})
	require.NoError(t, err)

	env, err := db.GenerateEnvFile()
	require.NoError(t, err)
	assert.Contains(t, env, "# DATABASE\n")
	assert.Contains(t, env, "# primary database\n")
	assert.Contains(t, env, "DATABASE_URL=postgres://x\n")
	assert.Contains(t, env, "# SERVER\n")
	assert.Contains(t, env, "PORT=3000\n")
	assert.Contains(t, env, "# GENERAL\n")
	assert.Contains(t, env, "OPTIONAL=\n")

	example, err := db.GenerateEnvExample()
	require.NoError(t, err)
	assert.Contains(t, example, "DATABASE_URL=your-secret-here\n")
	assert.Contains(t, example, "OPTIONAL=your-value-here\n")
	assert.NotContains(t, example, "postgres://x")
	// Non-sensitive, non-empty values are kept as-is
	assert.Contains(t, example, "PORT=3000\n")

	dir := t.TempDir()
	require.NoError(t, db.WriteEnvFiles(dir))
	written, err := os.ReadFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, env, string(written))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(nil, testLogger())

	projectA := t.TempDir()
	projectB := t.TempDir()

	a1, err := reg.Get(projectA)
	require.NoError(t, err)
	a2, err := reg.Get(projectA)
	require.NoError(t, err)
	b, err := reg.Get(projectB)
	require.NoError(t, err)

	// Same handle per project, distinct across projects
	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Len(t, reg.Projects(), 2)

	assert.Equal(t, filepath.Join(projectA, DatabaseFile), a1.Path())
}
