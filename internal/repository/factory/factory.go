// Package factory opens the credential store selected by configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/config"
	"github.com/prn-tf/warden/internal/repository"
	"github.com/prn-tf/warden/internal/repository/memory"
	"github.com/prn-tf/warden/internal/repository/postgres"
	"github.com/prn-tf/warden/internal/repository/sqlite"
)

// Store bundles the user repository with its backing database handles.
type Store struct {
	Users    repository.UserRepository
	Database repository.DatabaseHealth
	Migrator repository.Migrator
	Driver   string
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.Database.Close()
}

// Open creates the store for cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "store").Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Users:    postgres.NewUserRepository(db),
			Database: db,
			Migrator: db,
			Driver:   cfg.Driver,
		}, nil

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqliteConfig(cfg), logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Users:    sqlite.NewUserRepository(db),
			Database: db,
			Migrator: db,
			Driver:   cfg.Driver,
		}, nil

	case "memory":
		repo := memory.NewUserRepository()
		logger.Warn().Msg("using in-memory store; users are lost on restart")
		return &Store{
			Users:    repo,
			Database: repo,
			Migrator: repo,
			Driver:   cfg.Driver,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteConfig maps the shared database section onto SQLite settings.
func sqliteConfig(cfg config.DatabaseConfig) sqlite.Config {
	sc := sqlite.DefaultConfig(cfg.Path)
	if cfg.JournalMode != "" {
		sc.JournalMode = cfg.JournalMode
	}
	if cfg.BusyTimeout > 0 {
		sc.BusyTimeout = cfg.BusyTimeout
	}
	if cfg.CacheSize != 0 {
		sc.CacheSize = cfg.CacheSize
	}
	if cfg.SynchronousMode != "" {
		sc.SynchronousMode = cfg.SynchronousMode
	}
	return sc
}
