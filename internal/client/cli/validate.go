package cli

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/validate"
)

// loadSchema reads the project's requirement schema.
func loadSchema(ctx *cli.Context) (validate.Schema, error) {
	dir, err := projectDir(ctx)
	if err != nil {
		return validate.Schema{}, err
	}
	path := ctx.String("schema")
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return validate.LoadFile(path)
}

func schemaFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "schema",
		Value: validate.DefaultSchemaFile,
		Usage: "Requirement schema file, relative to the project root",
	}
}

func (c *Cli) validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check the store against the project's requirement schema",
		Flags: []cli.Flag{
			schemaFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
		},
		Action: func(ctx *cli.Context) error {
			schema, err := loadSchema(ctx)
			if err != nil {
				return err
			}
			db, err := c.openAuthenticated(ctx)
			if err != nil {
				return err
			}

			v := validate.New(db, schema, c.logger)
			result, err := v.Validate()
			if err != nil {
				return err
			}

			if ctx.Bool("json") {
				return c.printJSON(result)
			}

			for _, g := range result.Groups {
				mark := "ok"
				if !g.Configured {
					mark = "INCOMPLETE"
				}
				c.io.Printf("%-20s %s\n", g.Name, mark)
			}

			steps, err := v.SetupInstructions(result)
			if err != nil {
				return err
			}
			for _, step := range steps {
				c.io.Println(step.Title)
				for _, d := range step.Details {
					c.io.Printf("  %s\n", d)
				}
			}

			if !result.CanStart {
				return fmt.Errorf("%d variable(s) missing, %d invalid", len(result.Missing), len(result.Invalid))
			}
			return nil
		},
	}
}

func (c *Cli) autoconfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "autoconfig",
		Usage: "Generate defaults for missing schema variables",
		Flags: []cli.Flag{schemaFlag()},
		Action: func(ctx *cli.Context) error {
			schema, err := loadSchema(ctx)
			if err != nil {
				return err
			}
			db, err := c.openAuthenticated(ctx)
			if err != nil {
				return err
			}

			configured, err := validate.New(db, schema, c.logger).AutoConfigure()
			if err != nil {
				return err
			}
			if len(configured) == 0 {
				c.io.Println("Nothing to configure")
				return nil
			}
			for _, cv := range configured {
				c.io.Printf("%s=%s  [%s]\n", cv.Name, cv.Value, cv.Group)
			}
			return nil
		},
	}
}

func (c *Cli) generateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Write .env and .env.example to the project root",
		Action: func(ctx *cli.Context) error {
			db, err := c.openAuthenticated(ctx)
			if err != nil {
				return err
			}
			dir, err := projectDir(ctx)
			if err != nil {
				return err
			}
			if err := db.WriteEnvFiles(dir); err != nil {
				return err
			}
			c.io.Printf("Wrote %s and %s\n", filepath.Join(dir, ".env"), filepath.Join(dir, ".env.example"))
			return nil
		},
	}
}
