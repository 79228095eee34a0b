package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/domain"
)

// CachedUserRepository is a read-through cache in front of a UserRepository.
// Only successful lookups are cached. Cache failures are logged and never
// returned.
//
// Each cached record is stamped with the user's generation token, read before
// the store lookup that produced it. SetActive replaces the token after the
// underlying write, so a record filled by a lookup that raced the write is
// never served afterwards.
type CachedUserRepository struct {
	next   UserRepository
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedUserRepository wraps next with a read-through cache.
func NewCachedUserRepository(next UserRepository, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "user_cache").Logger(),
	}
}

// cachedUser is the cache encoding of a user. domain.User hides the password
// hash from JSON, so the cache carries its own shape.
type cachedUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Generation   string    `json:"generation"`
}

func encodeUser(u *domain.User, generation string) ([]byte, error) {
	return json.Marshal(cachedUser{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		Generation:   generation,
	})
}

func decodeUser(data []byte) (*domain.User, string, error) {
	var c cachedUser
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, "", err
	}
	return &domain.User{
		ID:           c.ID,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}, c.Generation, nil
}

// Create delegates to the underlying repository.
func (r *CachedUserRepository) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	return r.next.Create(ctx, username, passwordHash)
}

// GetByUsername serves from cache when the entry carries the current
// generation token.
func (r *CachedUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	generation, ok := r.generation(ctx, username)
	if !ok {
		return r.next.GetByUsername(ctx, username)
	}

	key := CacheKeys.UserByUsername(username)
	data, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		user, entryGen, decodeErr := decodeUser(data)
		if decodeErr != nil {
			r.logger.Warn().Err(decodeErr).Str("key", key).Msg("dropping undecodable cache entry")
			_ = r.cache.Delete(ctx, key)
			break
		}
		if entryGen == generation {
			return user, nil
		}
	case !errors.Is(err, ErrCacheMiss):
		r.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}

	user, err := r.next.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if data, err := encodeUser(user, generation); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}

	return user, nil
}

// generation returns the user's current generation token. A missing token is
// the empty generation. ok is false when the cache cannot be read, and the
// caller then bypasses the cache entirely.
func (r *CachedUserRepository) generation(ctx context.Context, username string) (string, bool) {
	key := CacheKeys.UserGeneration(username)
	data, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		return string(data), true
	case errors.Is(err, ErrCacheMiss):
		return "", true
	default:
		r.logger.Warn().Err(err).Str("key", key).Msg("cache generation read failed")
		return "", false
	}
}

// SetActive writes through, then rotates the generation token and evicts the
// cached record.
func (r *CachedUserRepository) SetActive(ctx context.Context, username string, active bool) error {
	if err := r.next.SetActive(ctx, username, active); err != nil {
		return err
	}

	// No TTL: the token must outlive every entry stamped with an older one.
	genKey := CacheKeys.UserGeneration(username)
	if err := r.cache.Set(ctx, genKey, []byte(uuid.NewString()), 0); err != nil {
		r.logger.Warn().Err(err).Str("key", genKey).Msg("cache generation bump failed")
	}

	key := CacheKeys.UserByUsername(username)
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache evict failed")
	}
	return nil
}

// List is never cached.
func (r *CachedUserRepository) List(ctx context.Context, opts ListOptions) (*ListResult[domain.User], error) {
	return r.next.List(ctx, opts)
}

// Ensure CachedUserRepository implements UserRepository.
var _ UserRepository = (*CachedUserRepository)(nil)
