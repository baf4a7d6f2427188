package cli

import (
	"errors"

	"github.com/urfave/cli/v2"
)

func (c *Cli) snapshotCmd() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Manage point-in-time snapshots of the variable set",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a named snapshot",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Snapshot description"},
				},
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 1 {
						return errors.New("usage: envmgr snapshot create NAME")
					}

					db, err := c.openAuthenticated(ctx)
					if err != nil {
						return err
					}

					snap, err := db.CreateSnapshot(ctx.Args().First(), ctx.String("description"))
					if err != nil {
						return err
					}
					c.io.Printf("Snapshot %s created (%d variables)\n", snap.ID, len(snap.Variables))
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List snapshots",
				Action: func(ctx *cli.Context) error {
					db, err := c.openAuthenticated(ctx)
					if err != nil {
						return err
					}

					snapshots, err := db.GetSnapshots()
					if err != nil {
						return err
					}
					for _, s := range snapshots {
						c.io.Printf("%s  %s  %s (%d variables)\n",
							s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Name, len(s.Variables))
					}
					return nil
				},
			},
			{
				Name:      "restore",
				Usage:     "Replace the variable set with a snapshot's contents",
				ArgsUsage: "ID",
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 1 {
						return errors.New("usage: envmgr snapshot restore ID")
					}

					ok, err := c.io.Confirm("This replaces every variable; a backup snapshot is taken first. Continue?")
					if err != nil {
						return err
					}
					if !ok {
						return nil
					}

					db, err := c.openAuthenticated(ctx)
					if err != nil {
						return err
					}
					if err := db.RestoreSnapshot(ctx.Args().First()); err != nil {
						return err
					}
					c.io.Println("Restored")
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a snapshot",
				ArgsUsage: "ID",
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 1 {
						return errors.New("usage: envmgr snapshot delete ID")
					}

					db, err := c.openAuthenticated(ctx)
					if err != nil {
						return err
					}
					if err := db.DeleteSnapshot(ctx.Args().First()); err != nil {
						return err
					}
					c.io.Println("Deleted")
					return nil
				},
			},
		},
	}
}
