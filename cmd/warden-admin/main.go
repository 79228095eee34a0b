// Package main is the entry point for the Warden admin CLI.
// This tool manages user accounts directly against the configured store.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prn-tf/warden/internal/app"
	"github.com/prn-tf/warden/internal/config"
	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/logging"
	"github.com/prn-tf/warden/internal/service"
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
		fmt.Printf("Warden Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUser(os.Args[2:], os.Stdin, os.Stdout); err != nil {
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

func runUser(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) < 1 {
		return errors.New("missing user subcommand (create, show, disable, enable, list)")
	}

	sub := args[0]
	fs := flag.NewFlagSet("user "+sub, flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")

	var username, password *string
	var limit, offset *int
	switch sub {
	case "create":
		username = fs.String("username", "", "username (required)")
		password = fs.String("password", "", "password; read from stdin when empty")
	case "show", "disable", "enable":
		username = fs.String("username", "", "username (required)")
	case "list":
		limit = fs.Int("limit", 20, "maximum users to list")
		offset = fs.Int("offset", 0, "users to skip")
	default:
		return fmt.Errorf("unknown user subcommand: %s", sub)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if username != nil && *username == "" {
		return errors.New("--username is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	// Keep stdout for command output.
	cfg.Logging.Output = "stderr"
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	switch sub {
	case "create":
		pw := *password
		if pw == "" {
			if pw, err = readPassword(stdin); err != nil {
				return err
			}
		}
		user, err := a.Accounts.CreateUser(ctx, *username, pw)
		if err != nil {
			if errors.Is(err, domain.ErrUserAlreadyExists) {
				return fmt.Errorf("user %s already exists", *username)
			}
			return err
		}
		fmt.Fprintf(stdout, "Created user %s (id %d)\n", user.Username, user.ID)

	case "show":
		user, err := a.Accounts.GetUser(ctx, *username)
		if err != nil {
			return notFound(err, *username)
		}
		fmt.Fprintf(stdout, "ID:       %d\n", user.ID)
		fmt.Fprintf(stdout, "Username: %s\n", user.Username)
		fmt.Fprintf(stdout, "State:    %s\n", user.State())
		fmt.Fprintf(stdout, "Created:  %s\n", user.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(stdout, "Updated:  %s\n", user.UpdatedAt.Format(time.RFC3339))

	case "disable":
		if err := a.Accounts.DisableUser(ctx, *username); err != nil {
			return notFound(err, *username)
		}
		fmt.Fprintf(stdout, "User %s disabled\n", *username)

	case "enable":
		if err := a.Accounts.EnableUser(ctx, *username); err != nil {
			return notFound(err, *username)
		}
		fmt.Fprintf(stdout, "User %s enabled\n", *username)

	case "list":
		out, err := a.Accounts.ListUsers(ctx, service.ListUsersInput{Limit: *limit, Offset: *offset})
		if err != nil {
			return err
		}
		printUsers(stdout, out)
	}

	return nil
}

func notFound(err error, username string) error {
	if errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("user %s not found", username)
	}
	return err
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}

func printUsers(w io.Writer, out *service.ListUsersOutput) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tSTATE\tCREATED")
	for _, u := range out.Users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.State(), u.CreatedAt.Format(time.RFC3339))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d of %d users\n", len(out.Users), out.TotalCount)
}

func printUsage() {
	fmt.Println(`Warden Admin CLI

Usage:
  warden-admin <command> [arguments]

Commands:
  user        Manage users (create, show, disable, enable, list)
  version     Print version information
  help        Show this help message

Examples:
  warden-admin user create --username alice --password secret123
  echo secret123 | warden-admin user create --username alice
  warden-admin user show --username alice
  warden-admin user disable --username alice
  warden-admin user enable --username alice
  warden-admin user list --limit 50

All commands accept --config <path>; WARDEN_* environment variables override file values.`)
}
