package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/credentials"
	"github.com/BuildAppolis/env-manager-sub001/internal/validation"
)

// promptNewPassword asks for a password twice and checks the policy.
func (c *Cli) promptNewPassword() (string, error) {
	password, err := c.io.ReadPassword("New master password: ")
	if err != nil {
		return "", err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", err
	}
	confirm, err := c.io.ReadPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func (c *Cli) setupCmd() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the user-global credential file",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing credential file"},
		},
		Action: func(ctx *cli.Context) error {
			path, err := credentials.DefaultPath()
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !ctx.Bool("force") {
				return fmt.Errorf("credential file already exists at %s (use --force to overwrite)", path)
			}

			password, err := c.promptNewPassword()
			if err != nil {
				return err
			}
			recovery, err := c.io.ReadInput("Recovery phrase (optional, press enter to skip): ")
			if err != nil {
				return err
			}

			creds, err := credentials.Create(password, recovery)
			if err != nil {
				return err
			}
			if err := credentials.Save(path, creds); err != nil {
				return err
			}

			c.io.Printf("Credentials written to %s\n", path)
			return nil
		},
	}
}

func (c *Cli) rotateCmd() *cli.Command {
	return &cli.Command{
		Name:  "rotate",
		Usage: "Rotate the master password and re-encrypt the project's sensitive variables",
		Action: func(ctx *cli.Context) error {
			path, err := credentials.DefaultPath()
			if err != nil {
				return err
			}
			creds, err := credentials.Load(path)
			if err != nil {
				return fmt.Errorf("run setup first: %w", err)
			}

			current, err := c.io.ReadPassword("Current master password: ")
			if err != nil {
				return err
			}
			if err := creds.Verify(current); err != nil {
				return err
			}

			newPassword, err := c.promptNewPassword()
			if err != nil {
				return err
			}
			rotated, err := creds.Rotate(newPassword)
			if err != nil {
				return err
			}
			newKey, err := rotated.Key()
			if err != nil {
				return err
			}

			// Re-encrypt the current project before the old key is gone.
			// Other projects must be rotated by running this command in
			// their directories before the credential file is replaced —
			// which is why re-encryption happens first.
			db, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			if err := db.Reencrypt(newKey); err != nil {
				return err
			}

			if err := credentials.Save(path, rotated); err != nil {
				return err
			}

			c.io.Println("Master password rotated")
			return nil
		},
	}
}

func (c *Cli) statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show store status for the current project",
		Action: func(ctx *cli.Context) error {
			db, err := c.openStore(ctx)
			if err != nil {
				return err
			}

			count, err := db.VariableCount()
			if err != nil {
				count = 0
			}

			c.io.Printf("Project:             %s\n", db.Path())
			c.io.Printf("Authenticated:       %v\n", db.IsAuthenticated())
			c.io.Printf("Password configured: %v\n", db.PasswordConfigured())
			c.io.Printf("Variables:           %d\n", count)
			return nil
		},
	}
}
