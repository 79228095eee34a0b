// Package lock provides distributed and local locking abstractions.
// For single-node deployments, memory-based locks are used.
// For distributed deployments, Redis-based locks can be used.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/warden/internal/repository"
)

// Locker defines the interface for distributed/local locking.
// This abstraction allows switching between in-memory locks (single-node)
// and Redis-based locks (distributed) without changing business logic.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns true if the lock was acquired, false if it's held by another process.
	// The lock will automatically expire after the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// AcquireWithRetry attempts to acquire a lock with retries.
	// Will retry up to maxRetries times with retryDelay between attempts.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error)

	// Release releases a lock.
	// Returns true if the lock was released, false if it wasn't held.
	Release(ctx context.Context, key string) (bool, error)

	// IsHeld checks if the lock is currently held.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// RetryPolicy bounds how long WithLock waits for a held lock.
type RetryPolicy struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultRetryPolicy waits up to roughly a minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		TTL:        2 * time.Minute,
		MaxRetries: 60,
		RetryDelay: time.Second,
	}
}

// WithLock runs fn while holding key. Returns repository.ErrLockNotAcquired
// if the lock stays held past the retry policy.
func WithLock(ctx context.Context, locker Locker, key string, policy RetryPolicy, fn func(ctx context.Context) error) error {
	acquired, err := locker.AcquireWithRetry(ctx, key, policy.TTL, policy.MaxRetries, policy.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", repository.ErrLockNotAcquired, key)
	}

	defer func() {
		// Release on a fresh context so a cancelled ctx still frees the key.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = locker.Release(releaseCtx, key)
	}()

	return fn(ctx)
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// SchemaMigration returns the lock key guarding schema migration.
func (lockKeys) SchemaMigration() string {
	return "lock:schema:migrate"
}
