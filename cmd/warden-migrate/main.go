// Package main is the entry point for the Warden database migration tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/prn-tf/warden/internal/app"
	rediscache "github.com/prn-tf/warden/internal/cache/redis"
	"github.com/prn-tf/warden/internal/config"
	"github.com/prn-tf/warden/internal/logging"
	"github.com/prn-tf/warden/internal/repository/factory"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Warden Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up", "status":
		if err := run(command, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := factory.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	switch command {
	case "up":
		var client *goredis.Client
		if cfg.Redis.Enabled {
			client, err = rediscache.NewClient(ctx, app.RedisOptions(cfg.Redis))
			if err != nil {
				return err
			}
			defer client.Close()
		}
		locker := app.NewLocker(cfg, client)
		if err := app.Migrate(ctx, store.Migrator, locker, nil, logger); err != nil {
			return err
		}
		fallthrough

	case "status":
		version, err := store.Migrator.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Driver: %s\nSchema version: %d\n", store.Driver, version)
	}

	return nil
}

func printUsage() {
	fmt.Println(`Warden Migration Tool

Usage:
  warden-migrate <command> [--config <path>]

Commands:
  up          Run all pending migrations
  status      Show current schema version
  version     Print version information
  help        Show this help message

Environment Variables:
  WARDEN_DATABASE_DRIVER    postgres, sqlite or memory
  WARDEN_DATABASE_HOST      PostgreSQL host
  WARDEN_DATABASE_PATH      SQLite database file

Examples:
  warden-migrate up
  warden-migrate status --config /etc/warden/config.yaml`)
}
