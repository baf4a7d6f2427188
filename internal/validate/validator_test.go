package validate

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuildAppolis/env-manager-sub001/internal/models"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *store.EnvDatabase {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "env-db.json"), nil, testLogger())
	require.NoError(t, err)
	return db
}

func databaseSchema() Schema {
	return Schema{
		Groups: []Group{
			{
				Name:     "database",
				Required: true,
				Variables: []VariableSpec{
					{
						Name:        "DATABASE_URL",
						Description: "primary database connection string",
						Example:     "postgres://localhost/app",
						Type:        "url",
						MinLength:   10,
						Generate:    GenerateCrypto,
						Sensitive:   true,
					},
				},
			},
		},
		RequiredGroups: []string{"database"},
	}
}

func TestValidateMissingVariable(t *testing.T) {
	db := newTestStore(t)
	v := New(db, databaseSchema(), testLogger())

	result, err := v.Validate()
	require.NoError(t, err)

	assert.Contains(t, result.Missing, "DATABASE_URL")
	assert.False(t, result.IsValid)
	assert.False(t, result.CanStart)
	require.Len(t, result.Groups, 1)
	assert.False(t, result.Groups[0].Configured)
}

func TestValidateEmptyValueIsMissing(t *testing.T) {
	db := newTestStore(t)
	_, err := db.SetVariable("DATABASE_URL", "", models.Metadata{})
	require.NoError(t, err)

	result, err := New(db, databaseSchema(), testLogger()).Validate()
	require.NoError(t, err)
	assert.Contains(t, result.Missing, "DATABASE_URL")
	assert.Empty(t, result.Invalid)
}

func TestValidateTooShortIsInvalid(t *testing.T) {
	db := newTestStore(t)
	_, err := db.SetVariable("DATABASE_URL", "short", models.Metadata{})
	require.NoError(t, err)

	result, err := New(db, databaseSchema(), testLogger()).Validate()
	require.NoError(t, err)
	assert.Contains(t, result.Invalid, "DATABASE_URL")
	assert.Empty(t, result.Missing)
	assert.False(t, result.IsValid)
}

func TestValidatePattern(t *testing.T) {
	schema := Schema{
		Groups: []Group{
			{
				Name:     "server",
				Required: true,
				Variables: []VariableSpec{
					{Name: "PORT", Validation: `^\d+$`},
				},
			},
		},
		RequiredGroups: []string{"server"},
	}

	db := newTestStore(t)
	_, err := db.SetVariable("PORT", "not-a-number", models.Metadata{})
	require.NoError(t, err)

	result, err := New(db, schema, testLogger()).Validate()
	require.NoError(t, err)
	assert.Contains(t, result.Invalid, "PORT")

	_, err = db.SetVariable("PORT", "3000", models.Metadata{})
	require.NoError(t, err)

	result, err = New(db, schema, testLogger()).Validate()
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.True(t, result.CanStart)
}

// A required group absent from RequiredGroups fails validation without
// blocking startup: hard requirement and startup gate are layered
// deliberately.
func TestRequiredGroupNotInStartupGate(t *testing.T) {
	schema := Schema{
		Groups: []Group{
			{
				Name:      "database",
				Required:  true,
				Variables: []VariableSpec{{Name: "DATABASE_URL"}},
			},
			{
				Name:      "mail",
				Required:  true,
				Variables: []VariableSpec{{Name: "SMTP_HOST"}},
			},
		},
		RequiredGroups: []string{"database"},
	}

	db := newTestStore(t)
	_, err := db.SetVariable("DATABASE_URL", "postgres://x", models.Metadata{})
	require.NoError(t, err)

	result, err := New(db, schema, testLogger()).Validate()
	require.NoError(t, err)

	assert.False(t, result.IsValid, "mail group is required and unconfigured")
	assert.True(t, result.CanStart, "mail group does not gate startup")
}

func TestAutoConfigure(t *testing.T) {
	db := newTestStore(t)
	v := New(db, databaseSchema(), testLogger())

	report, err := v.AutoConfigure()
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, "DATABASE_URL", report[0].Name)
	assert.Equal(t, "database", report[0].Group)
	// Sensitive generated values are masked in the report
	assert.Equal(t, "***", report[0].Value)

	// A crypto-generated value of exactly minLength was persisted
	variable, err := db.GetVariable("DATABASE_URL")
	require.NoError(t, err)
	assert.Len(t, variable.Value, 10)
	assert.True(t, variable.Sensitive)
	assert.Equal(t, "database", variable.Category)

	result, err := v.Validate()
	require.NoError(t, err)
	assert.True(t, result.CanStart)
}

func TestAutoConfigureLiteralDefault(t *testing.T) {
	schema := Schema{
		Groups: []Group{
			{
				Name:     "server",
				Required: true,
				Variables: []VariableSpec{
					{Name: "PORT", Default: "3000"},
					{Name: "NO_DEFAULT"},
				},
			},
		},
		RequiredGroups: []string{"server"},
	}

	db := newTestStore(t)
	report, err := New(db, schema, testLogger()).AutoConfigure()
	require.NoError(t, err)

	require.Len(t, report, 1)
	assert.Equal(t, "PORT", report[0].Name)
	assert.Equal(t, "3000", report[0].Value)

	// Variables with neither default nor generate strategy stay missing
	_, err = db.GetVariable("NO_DEFAULT")
	assert.ErrorIs(t, err, store.ErrVariableNotFound)
}

func TestSetupInstructionsSuccess(t *testing.T) {
	db := newTestStore(t)
	v := New(db, databaseSchema(), testLogger())

	_, err := v.AutoConfigure()
	require.NoError(t, err)
	result, err := v.Validate()
	require.NoError(t, err)

	steps, err := v.SetupInstructions(result)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Contains(t, steps[0].Title, "Ready to start")
}

func TestSetupInstructionsEnumerateProblems(t *testing.T) {
	db := newTestStore(t)
	v := New(db, databaseSchema(), testLogger())

	result, err := v.Validate()
	require.NoError(t, err)

	steps, err := v.SetupInstructions(result)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Contains(t, steps[0].Title, "database")
	require.NotEmpty(t, steps[0].Details)
	detail := steps[0].Details[len(steps[0].Details)-1]
	assert.Contains(t, detail, "DATABASE_URL")
	assert.Contains(t, detail, "missing")
	assert.Contains(t, detail, "primary database connection string")
	assert.Contains(t, detail, "[type: url]")
	assert.Contains(t, detail, "postgres://localhost/app")
	assert.Contains(t, detail, "[sensitive]")
}

func TestSetupInstructionsUnknownVariableFailsLoudly(t *testing.T) {
	db := newTestStore(t)
	v := New(db, databaseSchema(), testLogger())

	result := &Result{
		Groups: []GroupResult{
			{
				Name:     "database",
				Required: true,
				Missing:  []string{"NOT_IN_SCHEMA"},
			},
		},
	}

	_, err := v.SetupInstructions(result)
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestValidateBadPatternFails(t *testing.T) {
	schema := Schema{
		Groups: []Group{
			{
				Name:      "server",
				Required:  true,
				Variables: []VariableSpec{{Name: "PORT", Validation: `([`}},
			},
		},
	}

	db := newTestStore(t)
	_, err := db.SetVariable("PORT", "3000", models.Metadata{})
	require.NoError(t, err)

	_, err = New(db, schema, testLogger()).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid validation pattern")
}
