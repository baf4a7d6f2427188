// Package cli implements the envmgr command tree. Commands are
// local-first: they operate directly on the project's store; only
// `serve` starts the HTTP API.
package cli

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/client/iocli"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

// Cli bundles the dependencies shared by every command. The store
// registry is created lazily on first use so commands that never touch
// a store (help, version) skip credential loading.
type Cli struct {
	io       iocli.IO
	logger   *slog.Logger
	version  string
	registry *store.Registry
}

// New creates the command environment.
func New(io iocli.IO, logger *slog.Logger, version string) *Cli {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cli{io: io, logger: logger, version: version}
}

// BuildApp assembles the urfave/cli application.
func (c *Cli) BuildApp() *cli.App {
	app := &cli.App{
		Name:    "envmgr",
		Usage:   "Local environment variable manager",
		Version: c.version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"C"},
				Value:   ".",
				Usage:   "Project root directory",
			},
		},
		Commands: []*cli.Command{
			c.setupCmd(),
			c.rotateCmd(),
			c.statusCmd(),
			c.setCmd(),
			c.getCmd(),
			c.listCmd(),
			c.deleteCmd(),
			c.historyCmd(),
			c.snapshotCmd(),
			c.draftCmd(),
			c.versionsCmd(),
			c.generateCmd(),
			c.validateCmd(),
			c.autoconfigCmd(),
			c.branchCmd(),
			c.portCmd(),
			c.serveCmd(),
		},
	}
	// Let errors propagate to the caller instead of exiting the process
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}
