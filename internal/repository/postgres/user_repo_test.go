package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/warden/internal/config"
	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/repository"
)

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	require.False(t, isUniqueViolation(&pgconn.PgError{Code: "23514"}))
	require.False(t, isUniqueViolation(errors.New("23505")))
}

func TestMigrations_Embedded(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/00001_create_users.sql")
	require.NoError(t, err)
	require.Contains(t, string(data), "-- +goose Up")
	require.Contains(t, string(data), "-- +goose Down")
	require.Contains(t, string(data), "UNIQUE (username)")
}

// newTestDB connects to the PostgreSQL named by WARDEN_TEST_POSTGRES_HOST.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	host := os.Getenv("WARDEN_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("WARDEN_TEST_POSTGRES_HOST not set")
	}

	cfg := config.DatabaseConfig{
		Driver:       "postgres",
		Host:         host,
		Port:         5432,
		User:         envOr("WARDEN_TEST_POSTGRES_USER", "warden"),
		Password:     envOr("WARDEN_TEST_POSTGRES_PASSWORD", "warden"),
		Database:     envOr("WARDEN_TEST_POSTGRES_DB", "warden_test"),
		SSLMode:      "disable",
		MaxOpenConns: 8,
		MaxIdleConns: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE users RESTART IDENTITY`)
	require.NoError(t, err)
	return db
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestUserRepository_Postgres(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	v, err := db.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	created, err := repo.Create(ctx, "alice", "h1")
	require.NoError(t, err)
	require.True(t, created.IsActive)

	_, err = repo.Create(ctx, "alice", "h2")
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	require.NoError(t, repo.SetActive(ctx, "alice", false))
	require.NoError(t, repo.SetActive(ctx, "alice", false))
	require.ErrorIs(t, repo.SetActive(ctx, "ghost", false), domain.ErrUserNotFound)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Equal(t, "h1", got.PasswordHash)

	_, err = repo.GetByUsername(ctx, strings.ToUpper("alice"))
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	res, err := repo.List(ctx, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Total)
	require.Len(t, res.Items, 1)
}
