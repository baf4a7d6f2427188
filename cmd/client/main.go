package main

import (
	"fmt"
	"os"

	"github.com/BuildAppolis/env-manager-sub001/internal/client/cli"
	"github.com/BuildAppolis/env-manager-sub001/internal/client/iocli"
	"github.com/BuildAppolis/env-manager-sub001/internal/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logger()

	app := cli.New(iocli.NewStdio(), logger, versionString()).BuildApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionString() string {
	return fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit)
}
