package cli

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/validation"
)

func (c *Cli) branchCmd() *cli.Command {
	return &cli.Command{
		Name:  "branch",
		Usage: "Work with branch-tagged variable sets",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List branches that have variables",
				Action: func(ctx *cli.Context) error {
					db, err := c.openAuthenticated(ctx)
					if err != nil {
						return err
					}
					branches, err := db.ListBranches()
					if err != nil {
						return err
					}
					for _, b := range branches {
						c.io.Println(b)
					}
					return nil
				},
			},
			{
				Name:      "copy",
				Usage:     "Copy a branch's resolved variables onto another branch",
				ArgsUsage: "SOURCE TARGET",
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 2 {
						return errors.New("usage: envmgr branch copy SOURCE TARGET")
					}
					source, target := ctx.Args().Get(0), ctx.Args().Get(1)
					if err := validation.ValidateBranchName(source); err != nil {
						return err
					}
					if err := validation.ValidateBranchName(target); err != nil {
						return err
					}

					db, err := c.openAuthenticated(ctx)
					if err != nil {
						return err
					}
					copied, err := db.CopyBranch(source, target)
					if err != nil {
						return err
					}
					c.io.Printf("Copied %d variable(s) from %s to %s\n", copied, source, target)
					return nil
				},
			},
		},
	}
}
