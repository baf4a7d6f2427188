package cli

import (
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/ports"
)

// openPortRegistry opens the user-global port registry.
func openPortRegistry(ctx *cli.Context) (*ports.Registry, error) {
	path, err := ports.DefaultPath()
	if err != nil {
		return nil, err
	}
	return ports.Open(path, ctx.Int("range-start"), ctx.Int("range-end"))
}

// portProject resolves the reservation key: the project directory's
// base name unless --name overrides it.
func portProject(ctx *cli.Context) (string, error) {
	if name := ctx.String("name"); name != "" {
		return name, nil
	}
	dir, err := projectDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Base(dir), nil
}

func (c *Cli) portCmd() *cli.Command {
	rangeFlags := []cli.Flag{
		&cli.IntFlag{Name: "range-start", Value: ports.DefaultRangeStart, Usage: "Lowest assignable port"},
		&cli.IntFlag{Name: "range-end", Value: ports.DefaultRangeEnd, Usage: "Highest assignable port"},
	}
	nameFlag := &cli.StringFlag{Name: "name", Usage: "Project name (defaults to the directory name)"}

	return &cli.Command{
		Name:  "port",
		Usage: "Reserve development ports per project",
		Subcommands: []*cli.Command{
			{
				Name:  "reserve",
				Usage: "Reserve a port for this project (idempotent)",
				Flags: append([]cli.Flag{
					nameFlag,
					&cli.IntFlag{Name: "preferred", Aliases: []string{"p"}, Usage: "Preferred port"},
				}, rangeFlags...),
				Action: func(ctx *cli.Context) error {
					project, err := portProject(ctx)
					if err != nil {
						return err
					}
					reg, err := openPortRegistry(ctx)
					if err != nil {
						return err
					}
					defer func() { _ = reg.Close() }()

					port, err := reg.Reserve(project, ctx.Int("preferred"))
					if err != nil {
						return err
					}
					c.io.Printf("%d\n", port)
					return nil
				},
			},
			{
				Name:  "release",
				Usage: "Release this project's reservation",
				Flags: append([]cli.Flag{nameFlag}, rangeFlags...),
				Action: func(ctx *cli.Context) error {
					project, err := portProject(ctx)
					if err != nil {
						return err
					}
					reg, err := openPortRegistry(ctx)
					if err != nil {
						return err
					}
					defer func() { _ = reg.Close() }()

					if err := reg.Release(project); err != nil {
						return err
					}
					c.io.Println("Released")
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List all reservations",
				Flags: rangeFlags,
				Action: func(ctx *cli.Context) error {
					reg, err := openPortRegistry(ctx)
					if err != nil {
						return err
					}
					defer func() { _ = reg.Close() }()

					reservations, err := reg.List()
					if err != nil {
						return err
					}
					for _, r := range reservations {
						c.io.Printf("%-30s %d\n", r.Project, r.Port)
					}
					return nil
				},
			},
		},
	}
}
