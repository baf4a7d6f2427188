package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/credentials"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

// EnvPassword lets scripts supply the master password without a TTY.
const EnvPassword = "ENV_MANAGER_PASSWORD"

// projectDir resolves the --project flag to an absolute path.
func projectDir(ctx *cli.Context) (string, error) {
	return filepath.Abs(ctx.String("project"))
}

// loadGlobalCredentials reads the user-global credential file. A
// missing file is not an error; the store then runs in legacy mode.
func loadGlobalCredentials() (*credentials.File, error) {
	path, err := credentials.DefaultPath()
	if err != nil {
		return nil, err
	}
	creds, err := credentials.Load(path)
	if errors.Is(err, credentials.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// stores returns the process-wide registry, loading the user-global
// credentials on first use.
func (c *Cli) stores() (*store.Registry, error) {
	if c.registry != nil {
		return c.registry, nil
	}
	creds, err := loadGlobalCredentials()
	if err != nil {
		return nil, err
	}
	c.registry = store.NewRegistry(creds, c.logger)
	return c.registry, nil
}

// openStore opens the project's store through the registry, so
// commands touching the same project in one invocation share a handle.
func (c *Cli) openStore(ctx *cli.Context) (*store.EnvDatabase, error) {
	registry, err := c.stores()
	if err != nil {
		return nil, err
	}
	dir, err := projectDir(ctx)
	if err != nil {
		return nil, err
	}
	return registry.Get(dir)
}

// ensureAuth unlocks the store if it is not already usable. The
// password comes from ENV_MANAGER_PASSWORD or an interactive prompt.
func (c *Cli) ensureAuth(db *store.EnvDatabase) error {
	if db.IsAuthenticated() {
		return nil
	}

	password := os.Getenv(EnvPassword)
	if password == "" {
		var err error
		password, err = c.io.ReadPassword("Master password: ")
		if err != nil {
			return err
		}
	}
	return db.Authenticate(password)
}

// openAuthenticated combines openStore and ensureAuth.
func (c *Cli) openAuthenticated(ctx *cli.Context) (*store.EnvDatabase, error) {
	db, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.ensureAuth(db); err != nil {
		return nil, err
	}
	return db, nil
}

// printJSON writes an indented JSON rendering to the command's IO.
func (c *Cli) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = c.io.Write(data)
	return err
}

// maskValue hides a sensitive value in human-readable output.
func maskValue(value string, sensitive bool) string {
	if sensitive {
		return "***"
	}
	return value
}
