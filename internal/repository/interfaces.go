// Package repository defines data access interfaces for Warden.
// These interfaces abstract database operations, allowing for different implementations
// (SQLite, PostgreSQL, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/warden/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user credential storage.
// Implementations own their records: every returned *domain.User is a copy.
type UserRepository interface {
	// Create inserts a new active user. The uniqueness check and the insert
	// are a single atomic step; a taken username yields domain.ErrUserAlreadyExists.
	Create(ctx context.Context, username, passwordHash string) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	// Returns domain.ErrUserNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// SetActive sets the active flag of a user. Idempotent.
	// Returns domain.ErrUserNotFound if absent.
	SetActive(ctx context.Context, username string, active bool) error

	// List returns users ordered by ID with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.User], error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items  []*T
	Total  int64
	Offset int
	Limit  int
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Migrator applies the schema to a backing store.
type Migrator interface {
	// Migrate applies all pending migrations. Safe to call repeatedly.
	Migrate(ctx context.Context) error

	// Version returns the applied schema version, 0 if none.
	Version(ctx context.Context) (int64, error)
}
