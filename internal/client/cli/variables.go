package cli

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/models"
	"github.com/BuildAppolis/env-manager-sub001/internal/validation"
)

func (c *Cli) setCmd() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Create or update a variable",
		ArgsUsage: "NAME VALUE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category for env file grouping"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Human-readable description"},
			&cli.BoolFlag{Name: "sensitive", Aliases: []string{"s"}, Usage: "Encrypt the value at rest"},
			&cli.StringFlag{Name: "branch", Aliases: []string{"b"}, Usage: "Branch tag (defaults to main)"},
			&cli.StringFlag{Name: "env", Usage: "Environment tag (development, production, ...)"},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 2 {
				return errors.New("usage: envmgr set NAME VALUE")
			}
			name, value := ctx.Args().Get(0), ctx.Args().Get(1)
			if err := validation.ValidateVariableName(name); err != nil {
				return err
			}
			if branch := ctx.String("branch"); branch != "" {
				if err := validation.ValidateBranchName(branch); err != nil {
					return err
				}
			}

			db, err := c.openAuthenticated(ctx)
			if err != nil {
				return err
			}

			v, err := db.SetVariable(name, value, models.Metadata{
				Category:    ctx.String("category"),
				Description: ctx.String("description"),
				Sensitive:   ctx.Bool("sensitive"),
				Branch:      ctx.String("branch"),
				Environment: ctx.String("env"),
			})
			if err != nil {
				return err
			}

			c.io.Printf("Set %s (branch %s)\n", v.Name, v.EffectiveBranch())
			return nil
		},
	}
}

func (c *Cli) getCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print one variable's value",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "show", Usage: "Print sensitive values in the clear"},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return errors.New("usage: envmgr get NAME")
			}

			db, err := c.openAuthenticated(ctx)
			if err != nil {
				return err
			}

			v, err := db.GetVariable(ctx.Args().First())
			if err != nil {
				return err
			}

			value := v.Value
			if v.Sensitive && !ctx.Bool("show") {
				value = maskValue(value, true)
			}
			c.io.Println(value)
			return nil
		},
	}
}

func (c *Cli) listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List variables resolved for a branch",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "branch", Aliases: []string{"b"}, Value: models.DefaultBranch, Usage: "Branch to resolve"},
			&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
			&cli.BoolFlag{Name: "show", Usage: "Print sensitive values in the clear"},
		},
		Action: func(ctx *cli.Context) error {
			db, err := c.openAuthenticated(ctx)
			if err != nil {
				return err
			}

			variables, err := db.GetAllVariables(ctx.String("branch"))
			if err != nil {
				return err
			}

			if ctx.Bool("json") {
				return c.printJSON(variables)
			}

			for _, v := range variables {
				value := v.Value
				if v.Sensitive && !ctx.Bool("show") {
					value = maskValue(value, true)
				}
				line := fmt.Sprintf("%s=%s", v.Name, value)
				if v.Category != "" {
					line += "  [" + v.Category + "]"
				}
				c.io.Println(line)
			}
			return nil
		},
	}
}

func (c *Cli) deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a variable from the default branch",
		ArgsUsage: "NAME",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return errors.New("usage: envmgr delete NAME")
			}

			db, err := c.openAuthenticated(ctx)
			if err != nil {
				return err
			}

			deleted, err := db.DeleteVariable(ctx.Args().First())
			if err != nil {
				return err
			}
			if !deleted {
				c.io.Println("Nothing to delete")
				return nil
			}
			c.io.Println("Deleted")
			return nil
		},
	}
}

func (c *Cli) historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the audit log, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum entries to print (0 = all)"},
			&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
		},
		Action: func(ctx *cli.Context) error {
			db, err := c.openAuthenticated(ctx)
			if err != nil {
				return err
			}

			history, err := db.GetHistory()
			if err != nil {
				return err
			}
			if limit := ctx.Int("limit"); limit > 0 && len(history) > limit {
				history = history[:limit]
			}

			if ctx.Bool("json") {
				return c.printJSON(history)
			}

			for _, e := range history {
				c.io.Printf("%s  %-7s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.VariableName)
			}
			return nil
		},
	}
}
