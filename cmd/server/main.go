package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BuildAppolis/env-manager-sub001/internal/config"
	"github.com/BuildAppolis/env-manager-sub001/internal/credentials"
	"github.com/BuildAppolis/env-manager-sub001/internal/draft"
	"github.com/BuildAppolis/env-manager-sub001/internal/server"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := cfg.Logger()

	creds, err := loadGlobalCredentials()
	if err != nil {
		return err
	}

	registry := store.NewRegistry(creds, logger)
	db, err := registry.Get(cfg.ProjectDir)
	if err != nil {
		return err
	}

	drafts := draft.NewManager(db, logger)
	srv := server.New(cfg, logger, db, drafts, Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// loadGlobalCredentials reads the user-global credential file; a
// missing file means legacy in-document auth.
func loadGlobalCredentials() (*credentials.File, error) {
	path, err := credentials.DefaultPath()
	if err != nil {
		return nil, err
	}
	creds, err := credentials.Load(path)
	if errors.Is(err, credentials.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func printVersion() {
	fmt.Printf("env-manager server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
