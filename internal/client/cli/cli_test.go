package cli

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuildAppolis/env-manager-sub001/internal/credentials"
	"github.com/BuildAppolis/env-manager-sub001/internal/draft"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

// fakeIO records output and replays scripted prompt answers.
type fakeIO struct {
	out       bytes.Buffer
	inputs    []string
	passwords []string
	confirms  []bool
}

func (f *fakeIO) Println(a ...any) {
	fmt.Fprintln(&f.out, a...)
}

func (f *fakeIO) Printf(format string, a ...any) {
	fmt.Fprintf(&f.out, format, a...)
}

func (f *fakeIO) Write(p []byte) (int, error) {
	return f.out.Write(p)
}

func (f *fakeIO) ReadInput(string) (string, error) {
	if len(f.inputs) == 0 {
		return "", errors.New("no scripted input")
	}
	next := f.inputs[0]
	f.inputs = f.inputs[1:]
	return next, nil
}

func (f *fakeIO) ReadPassword(string) (string, error) {
	if len(f.passwords) == 0 {
		return "", errors.New("no scripted password")
	}
	next := f.passwords[0]
	f.passwords = f.passwords[1:]
	return next, nil
}

func (f *fakeIO) Confirm(string) (bool, error) {
	if len(f.confirms) == 0 {
		return false, errors.New("no scripted confirmation")
	}
	next := f.confirms[0]
	f.confirms = f.confirms[1:]
	return next, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestCli isolates the user-global state (credentials, port
// registry) inside the test's temp tree and returns a project dir.
func newTestCli(t *testing.T) (*Cli, *fakeIO, string) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv(credentials.EnvPath, filepath.Join(tmp, "global", "credentials.json"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg"))

	project := filepath.Join(tmp, "project")
	require.NoError(t, os.MkdirAll(project, 0o755))

	io := &fakeIO{}
	return New(io, testLogger(), "test"), io, project
}

func run(t *testing.T, c *Cli, project string, args ...string) error {
	t.Helper()
	argv := append([]string{"envmgr", "-C", project}, args...)
	return c.BuildApp().Run(argv)
}

func TestSetGetListDelete(t *testing.T) {
	c, io, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "set", "DATABASE_URL", "postgres://localhost/dev", "-c", "database"))
	assert.Contains(t, io.out.String(), "Set DATABASE_URL")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "get", "DATABASE_URL"))
	assert.Contains(t, io.out.String(), "postgres://localhost/dev")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "list"))
	assert.Contains(t, io.out.String(), "DATABASE_URL=postgres://localhost/dev")
	assert.Contains(t, io.out.String(), "[database]")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "delete", "DATABASE_URL"))
	assert.Contains(t, io.out.String(), "Deleted")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "list"))
	assert.NotContains(t, io.out.String(), "DATABASE_URL")
}

func TestGetMasksSensitiveByDefault(t *testing.T) {
	c, io, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "set", "API_KEY", "hunter2", "--sensitive"))

	io.out.Reset()
	require.NoError(t, run(t, c, project, "get", "API_KEY"))
	assert.Contains(t, io.out.String(), "***")
	assert.NotContains(t, io.out.String(), "hunter2")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "get", "API_KEY", "--show"))
	assert.Contains(t, io.out.String(), "hunter2")
}

func TestHistoryCommand(t *testing.T) {
	c, io, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "set", "ONE", "1"))
	require.NoError(t, run(t, c, project, "set", "TWO", "2"))

	io.out.Reset()
	require.NoError(t, run(t, c, project, "history"))
	out := io.out.String()
	assert.Contains(t, out, "ONE")
	assert.Contains(t, out, "TWO")
}

func TestSnapshotLifecycle(t *testing.T) {
	c, io, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "set", "STATE", "before"))
	require.NoError(t, run(t, c, project, "snapshot", "create", "baseline"))

	require.NoError(t, run(t, c, project, "set", "STATE", "after"))

	io.out.Reset()
	require.NoError(t, run(t, c, project, "snapshot", "list"))
	assert.Contains(t, io.out.String(), "baseline")

	// Extract the snapshot id from the store directly
	db, err := store.Open(filepath.Join(project, store.DatabaseFile), nil, testLogger())
	require.NoError(t, err)
	snapshots, err := db.GetSnapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	io.confirms = []bool{true}
	require.NoError(t, run(t, c, project, "snapshot", "restore", snapshots[0].ID))

	io.out.Reset()
	require.NoError(t, run(t, c, project, "get", "STATE"))
	assert.Contains(t, io.out.String(), "before")
}

func TestDraftAddPublishesVersion(t *testing.T) {
	c, io, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "draft", "add", "FLAG=on", "PORT=8080", "-m", "initial config"))
	assert.Contains(t, io.out.String(), "Staged 2 change(s)")
	assert.Contains(t, io.out.String(), "Published v")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "versions"))
	assert.Contains(t, io.out.String(), "initial config")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "get", "FLAG"))
	assert.Contains(t, io.out.String(), "on")
}

func TestDraftStageOnlyDoesNotApply(t *testing.T) {
	c, _, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "draft", "add", "UNPUBLISHED=x", "--stage-only"))

	err := run(t, c, project, "get", "UNPUBLISHED")
	require.Error(t, err)
}

func TestVersionsRestoreInverts(t *testing.T) {
	c, io, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "draft", "add", "ROLLBACK=v1", "-m", "add rollback"))

	db, err := store.Open(filepath.Join(project, store.DatabaseFile), nil, testLogger())
	require.NoError(t, err)
	drafts := draftVersionIDs(t, db)
	require.Len(t, drafts, 1)

	io.out.Reset()
	require.NoError(t, run(t, c, project, "versions", "restore", drafts[0]))
	assert.Contains(t, io.out.String(), "Published")

	err = run(t, c, project, "get", "ROLLBACK")
	require.Error(t, err)
}

func TestBranchCommands(t *testing.T) {
	c, io, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "set", "URL", "https://prod"))
	require.NoError(t, run(t, c, project, "set", "URL", "https://staging", "-b", "staging"))

	io.out.Reset()
	require.NoError(t, run(t, c, project, "branch", "list"))
	assert.Contains(t, io.out.String(), "main")
	assert.Contains(t, io.out.String(), "staging")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "branch", "copy", "staging", "qa"))
	assert.Contains(t, io.out.String(), "Copied 1 variable(s)")
}

func TestGenerateWritesEnvFiles(t *testing.T) {
	c, _, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "set", "EXPORTED", "value"))
	require.NoError(t, run(t, c, project, "generate"))

	data, err := os.ReadFile(filepath.Join(project, ".env"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "EXPORTED=value")

	_, err = os.Stat(filepath.Join(project, ".env.example"))
	assert.NoError(t, err)
}

func TestValidateAndAutoconfig(t *testing.T) {
	c, io, project := newTestCli(t)

	schema := `{
  "groups": [
    {
      "name": "core",
      "required": true,
      "variables": [
        {"name": "SECRET_KEY", "minLength": 16, "generate": "crypto", "sensitive": true}
      ]
    }
  ],
  "requiredGroups": ["core"]
}`
	require.NoError(t, os.WriteFile(filepath.Join(project, "env-schema.json"), []byte(schema), 0o644))

	err := run(t, c, project, "validate")
	require.Error(t, err, "missing variable should fail validation")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "autoconfig"))
	assert.Contains(t, io.out.String(), "SECRET_KEY=***")

	require.NoError(t, run(t, c, project, "validate"))
}

func TestPortCommands(t *testing.T) {
	c, io, project := newTestCli(t)

	io.out.Reset()
	require.NoError(t, run(t, c, project, "port", "reserve", "--name", "alpha"))
	assert.Contains(t, io.out.String(), "3000")

	// Reservation is idempotent
	io.out.Reset()
	require.NoError(t, run(t, c, project, "port", "reserve", "--name", "alpha"))
	assert.Contains(t, io.out.String(), "3000")

	io.out.Reset()
	require.NoError(t, run(t, c, project, "port", "list"))
	assert.Contains(t, io.out.String(), "alpha")

	require.NoError(t, run(t, c, project, "port", "release", "--name", "alpha"))
}

func TestSetupCreatesCredentialFile(t *testing.T) {
	c, io, project := newTestCli(t)

	io.passwords = []string{"master-password", "master-password"}
	io.inputs = []string{"recovery words"}
	require.NoError(t, run(t, c, project, "setup"))

	path, err := credentials.DefaultPath()
	require.NoError(t, err)
	creds, err := credentials.Load(path)
	require.NoError(t, err)
	assert.NoError(t, creds.Verify("master-password"))

	// A second setup without --force refuses to overwrite
	io.passwords = []string{"other", "other"}
	io.inputs = []string{""}
	err = run(t, c, project, "setup")
	require.Error(t, err)
}

func TestCommandsShareRegistryHandle(t *testing.T) {
	c, _, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "set", "ONE", "1"))
	require.NoError(t, run(t, c, project, "set", "TWO", "2"))

	// Repeated commands on the same project reuse one registry entry
	// instead of opening independent store handles
	require.NotNil(t, c.registry)
	projects := c.registry.Projects()
	require.Len(t, projects, 1)

	abs, err := filepath.Abs(project)
	require.NoError(t, err)
	assert.Equal(t, abs, projects[0])
}

func TestStatusCommand(t *testing.T) {
	c, io, project := newTestCli(t)

	require.NoError(t, run(t, c, project, "set", "ONE", "1"))

	io.out.Reset()
	require.NoError(t, run(t, c, project, "status"))
	out := io.out.String()
	assert.Contains(t, out, "Variables:           1")
	assert.Contains(t, out, "Authenticated:       true")
}

// draftVersionIDs lists published version ids via a fresh manager.
func draftVersionIDs(t *testing.T, db *store.EnvDatabase) []string {
	t.Helper()
	versions, err := draft.NewManager(db, testLogger()).GetVersionHistory()
	require.NoError(t, err)
	ids := make([]string, 0, len(versions))
	for _, v := range versions {
		ids = append(ids, v.ID)
	}
	return ids
}
