package cli

import (
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/BuildAppolis/env-manager-sub001/internal/config"
	"github.com/BuildAppolis/env-manager-sub001/internal/draft"
	"github.com/BuildAppolis/env-manager-sub001/internal/server"
)

func (c *Cli) serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API for this project",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides ENV_MANAGER_ADDR)"},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr := ctx.String("addr"); addr != "" {
				cfg.Addr = addr
			}
			dir, err := projectDir(ctx)
			if err != nil {
				return err
			}
			cfg.ProjectDir = dir

			db, err := c.openStore(ctx)
			if err != nil {
				return err
			}

			drafts := draft.NewManager(db, c.logger)
			srv := server.New(cfg, c.logger, db, drafts, c.version)

			runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(runCtx)
		},
	}
}
