// Package app wires configuration into a running set of Warden components.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/cache/memory"
	rediscache "github.com/prn-tf/warden/internal/cache/redis"
	"github.com/prn-tf/warden/internal/config"
	"github.com/prn-tf/warden/internal/lock"
	"github.com/prn-tf/warden/internal/metrics"
	"github.com/prn-tf/warden/internal/pkg/crypto"
	"github.com/prn-tf/warden/internal/repository"
	"github.com/prn-tf/warden/internal/repository/factory"
	"github.com/prn-tf/warden/internal/service"
)

// App holds the components shared by the server and the CLIs.
type App struct {
	Config   *config.Config
	Store    *factory.Store
	Users    repository.UserRepository
	Accounts *service.AccountService
	Locker   lock.Locker
	Metrics  *metrics.Metrics
	Redis    *goredis.Client

	memCache *memory.Cache
}

// Options tweaks what New builds.
type Options struct {
	// SkipMigrate disables the startup migration regardless of config.
	SkipMigrate bool
}

// New opens the store and builds the account service for cfg.
// Callers must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	a := &App{
		Config:  cfg,
		Metrics: metrics.New(),
	}

	store, err := factory.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = store

	if cfg.Redis.Enabled {
		client, err := rediscache.NewClient(ctx, RedisOptions(cfg.Redis))
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Redis = client
	}
	a.Locker = NewLocker(cfg, a.Redis)

	if cfg.Database.AutoMigrate && !opts.SkipMigrate {
		if err := Migrate(ctx, store.Migrator, a.Locker, a.Metrics, logger); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.Users = store.Users
	cached := false
	if cfg.Cache.Enabled {
		c, mc := NewUserCache(cfg, a.Redis)
		if c == nil {
			logger.Warn().
				Str("driver", store.Driver).
				Msg("user cache disabled: a shared database needs redis to keep replicas consistent")
		} else {
			a.memCache = mc
			a.Users = repository.NewCachedUserRepository(store.Users, c, cfg.Cache.TTL, logger)
			cached = true
		}
	}

	hasher, err := crypto.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Accounts = service.NewAccountService(a.Users, hasher, a.Metrics, logger)

	logger.Info().
		Str("driver", store.Driver).
		Bool("redis", a.Redis != nil).
		Bool("cache", cached).
		Int("bcrypt_cost", hasher.Cost()).
		Msg("components initialized")

	return a, nil
}

// Close releases every resource New acquired.
func (a *App) Close() error {
	var errs []error
	if a.memCache != nil {
		a.memCache.Stop()
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// RedisOptions maps the redis section onto client options.
func RedisOptions(cfg config.RedisConfig) *goredis.Options {
	return &goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	}
}

// NewUserCache picks the cache behind the user repository. Redis is shared
// by every replica. The in-process cache only sees its own evictions, so it
// is used only for embedded databases, which a single process owns. Returns
// nil when neither applies; the second result is the in-process cache to
// stop on shutdown, if any.
func NewUserCache(cfg *config.Config, client *goredis.Client) (repository.Cache, *memory.Cache) {
	switch {
	case client != nil:
		return rediscache.NewCache(client, cfg.Cache.KeyPrefix), nil
	case cfg.Database.IsEmbedded():
		mc := memory.NewCache(time.Minute)
		return mc, mc
	default:
		return nil, nil
	}
}

// NewLocker picks the lock implementation for the deployment.
// Shared databases need a distributed lock; embedded ones are single-process.
func NewLocker(cfg *config.Config, client *goredis.Client) lock.Locker {
	switch {
	case client != nil:
		return lock.NewRedisLocker(client)
	case cfg.Database.Driver == "memory":
		return lock.NewNoOpLocker()
	default:
		return lock.NewMemoryLocker()
	}
}

// Migrate applies pending schema migrations while holding the migration lock.
func Migrate(ctx context.Context, migrator repository.Migrator, locker lock.Locker, m *metrics.Metrics, logger zerolog.Logger) error {
	err := lock.WithLock(ctx, locker, lock.Keys.SchemaMigration(), lock.DefaultRetryPolicy(), func(ctx context.Context) error {
		before, err := migrator.Version(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		after, err := migrator.Version(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		m.RecordMigration()
		logger.Info().Int64("from", before).Int64("to", after).Msg("schema up to date")
		return nil
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
