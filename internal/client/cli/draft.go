package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/draft"
	"github.com/BuildAppolis/env-manager-sub001/internal/models"
	"github.com/BuildAppolis/env-manager-sub001/internal/validation"
)

// newDraftManager opens the store and wraps it in a draft manager.
// Drafts live in process memory; a draft staged by one envmgr
// invocation is gone by the next, so `draft add` publishes in the same
// run unless --stage-only is given.
func (c *Cli) newDraftManager(ctx *cli.Context) (*draft.Manager, error) {
	db, err := c.openAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	return draft.NewManager(db, c.logger), nil
}

// parseAssignment splits NAME=VALUE.
func parseAssignment(arg string) (name, value string, err error) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return "", "", fmt.Errorf("expected NAME=VALUE, got %q", arg)
	}
	if err := validation.ValidateVariableName(name); err != nil {
		return "", "", err
	}
	return name, value, nil
}

func (c *Cli) draftCmd() *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Stage a set of changes and publish them as one version",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Stage assignments (NAME=VALUE ...) and publish them as one version",
				ArgsUsage: "NAME=VALUE [NAME=VALUE ...]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "delete", Usage: "Stage a deletion (repeatable)"},
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Version description"},
					&cli.StringFlag{Name: "author", Usage: "Version author"},
					&cli.StringFlag{Name: "category", Usage: "Category for created variables"},
					&cli.BoolFlag{Name: "sensitive", Usage: "Encrypt created values at rest"},
					&cli.StringFlag{Name: "branch", Aliases: []string{"b"}, Usage: "Branch tag for created variables"},
					&cli.BoolFlag{Name: "stage-only", Usage: "Stage without publishing (the draft dies with this process)"},
				},
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() == 0 && len(ctx.StringSlice("delete")) == 0 {
						return errors.New("nothing to stage")
					}

					m, err := c.newDraftManager(ctx)
					if err != nil {
						return err
					}
					m.CreateDraft(ctx.String("message"), ctx.String("author"))

					meta := models.Metadata{
						Category:  ctx.String("category"),
						Sensitive: ctx.Bool("sensitive"),
						Branch:    ctx.String("branch"),
					}
					for _, arg := range ctx.Args().Slice() {
						name, value, err := parseAssignment(arg)
						if err != nil {
							return err
						}
						if err := m.AddVariable(name, value, meta, models.ChangeCreate); err != nil {
							return err
						}
					}
					for _, name := range ctx.StringSlice("delete") {
						if err := m.AddVariable(name, "", models.Metadata{}, models.ChangeDelete); err != nil {
							return err
						}
					}

					changes := m.GetDraftChanges()
					c.io.Printf("Staged %d change(s)\n", len(changes))

					if ctx.Bool("stage-only") {
						return nil
					}

					version, err := m.PublishDraft()
					if err != nil {
						return err
					}
					c.io.Printf("Published %s (%d changes)\n", version.Version, len(version.Changes))
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show the in-process draft (empty in a fresh invocation)",
				Action: func(ctx *cli.Context) error {
					m, err := c.newDraftManager(ctx)
					if err != nil {
						return err
					}
					if !m.HasDraft() {
						c.io.Println("No draft")
						return nil
					}
					return c.printJSON(m.GetDraftChanges())
				},
			},
			{
				Name:  "publish",
				Usage: "Publish the in-process draft",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Version description"},
					&cli.StringFlag{Name: "author", Usage: "Version author"},
				},
				Action: func(ctx *cli.Context) error {
					m, err := c.newDraftManager(ctx)
					if err != nil {
						return err
					}
					if err := m.SetLabel(ctx.String("message"), ctx.String("author")); err != nil && !errors.Is(err, draft.ErrNoDraft) {
						return err
					}

					version, err := m.PublishDraft()
					if err != nil {
						return err
					}
					c.io.Printf("Published %s (%d changes)\n", version.Version, len(version.Changes))
					return nil
				},
			},
			{
				Name:  "discard",
				Usage: "Discard the in-process draft",
				Action: func(ctx *cli.Context) error {
					m, err := c.newDraftManager(ctx)
					if err != nil {
						return err
					}
					m.DiscardDraft()
					c.io.Println("Discarded")
					return nil
				},
			},
		},
	}
}

func (c *Cli) versionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "versions",
		Usage: "Show published versions, newest first",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
		},
		Subcommands: []*cli.Command{
			{
				Name:      "restore",
				Usage:     "Invert a version's changes and publish the rollback",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "stage-only", Usage: "Stage the rollback without publishing"},
				},
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 1 {
						return errors.New("usage: envmgr versions restore ID")
					}

					m, err := c.newDraftManager(ctx)
					if err != nil {
						return err
					}
					if _, err := m.RestoreFromVersion(ctx.Args().First()); err != nil {
						return err
					}

					changes := m.GetDraftChanges()
					c.io.Printf("Staged %d rollback change(s)\n", len(changes))

					if ctx.Bool("stage-only") {
						return nil
					}

					version, err := m.PublishDraft()
					if err != nil {
						return err
					}
					c.io.Printf("Published %s\n", version.Version)
					return nil
				},
			},
		},
		Action: func(ctx *cli.Context) error {
			m, err := c.newDraftManager(ctx)
			if err != nil {
				return err
			}
			versions, err := m.GetVersionHistory()
			if err != nil {
				return err
			}

			if ctx.Bool("json") {
				return c.printJSON(versions)
			}
			for _, v := range versions {
				c.io.Printf("%s  %s  %s (%d changes)\n",
					v.ID, v.Version, v.Description, len(v.Changes))
			}
			return nil
		},
	}
}
