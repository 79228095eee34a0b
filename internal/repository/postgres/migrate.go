package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// openSQL exposes the pool through database/sql, which goose requires.
func (db *DB) openSQL() (*sql.DB, error) {
	if err := goose.SetDialect("pgx"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(migrationsFS)
	return stdlib.OpenDBFromPool(db.Pool), nil
}

// Migrate applies all pending goose migrations.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB, err := db.openSQL()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	db.logger.Info().Msg("migrations applied")
	return nil
}

// Version returns the current goose schema version.
func (db *DB) Version(ctx context.Context) (int64, error) {
	sqlDB, err := db.openSQL()
	if err != nil {
		return 0, err
	}
	defer sqlDB.Close()

	v, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}
