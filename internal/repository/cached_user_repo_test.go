package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	memcache "github.com/prn-tf/warden/internal/cache/memory"
	rediscache "github.com/prn-tf/warden/internal/cache/redis"
	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/repository"
	"github.com/prn-tf/warden/internal/repository/memory"
)

type cacheFactory func(t *testing.T) repository.Cache

func caches() map[string]cacheFactory {
	return map[string]cacheFactory{
		"memory": func(t *testing.T) repository.Cache {
			c := memcache.NewCache(0)
			t.Cleanup(c.Stop)
			return c
		},
		"redis": func(t *testing.T) repository.Cache {
			mr := miniredis.RunT(t)
			client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return rediscache.NewCache(client, "warden:")
		},
	}
}

func TestCachedUserRepository_ReadThrough(t *testing.T) {
	for name, newCache := range caches() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewUserRepository()
			cache := newCache(t)
			repo := repository.NewCachedUserRepository(store, cache, time.Minute, zerolog.Nop())

			_, err := repo.Create(ctx, "alice", "$2a$04$hash")
			require.NoError(t, err)

			key := repository.CacheKeys.UserByUsername("alice")
			ok, err := cache.Exists(ctx, key)
			require.NoError(t, err)
			require.False(t, ok)

			first, err := repo.GetByUsername(ctx, "alice")
			require.NoError(t, err)

			ok, err = cache.Exists(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)

			second, err := repo.GetByUsername(ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, first.ID, second.ID)
			require.Equal(t, "$2a$04$hash", second.PasswordHash)
			require.True(t, second.IsActive)
		})
	}
}

func TestCachedUserRepository_SetActiveEvicts(t *testing.T) {
	for name, newCache := range caches() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := repository.NewCachedUserRepository(memory.NewUserRepository(), newCache(t), time.Minute, zerolog.Nop())

			_, err := repo.Create(ctx, "alice", "h")
			require.NoError(t, err)
			_, err = repo.GetByUsername(ctx, "alice")
			require.NoError(t, err)

			require.NoError(t, repo.SetActive(ctx, "alice", false))

			got, err := repo.GetByUsername(ctx, "alice")
			require.NoError(t, err)
			require.False(t, got.IsActive)
		})
	}
}

// pausingStore holds the first GetByUsername after it has read the store,
// until resume is closed.
type pausingStore struct {
	repository.UserRepository
	once   sync.Once
	read   chan struct{}
	resume chan struct{}
}

func newPausingStore(next repository.UserRepository) *pausingStore {
	return &pausingStore{
		UserRepository: next,
		read:           make(chan struct{}),
		resume:         make(chan struct{}),
	}
}

func (s *pausingStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.UserRepository.GetByUsername(ctx, username)
	s.once.Do(func() {
		close(s.read)
		<-s.resume
	})
	return user, err
}

func TestCachedUserRepository_LookupRacingDisable(t *testing.T) {
	for name, newCache := range caches() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			inner := memory.NewUserRepository()
			_, err := inner.Create(ctx, "alice", "h")
			require.NoError(t, err)

			store := newPausingStore(inner)
			repo := repository.NewCachedUserRepository(store, newCache(t), time.Minute, zerolog.Nop())

			done := make(chan *domain.User)
			go func() {
				u, _ := repo.GetByUsername(ctx, "alice")
				done <- u
			}()

			<-store.read
			require.NoError(t, repo.SetActive(ctx, "alice", false))
			close(store.resume)

			// The racing lookup saw the store before the write.
			stale := <-done
			require.NotNil(t, stale)
			require.True(t, stale.IsActive)

			got, err := repo.GetByUsername(ctx, "alice")
			require.NoError(t, err)
			require.False(t, got.IsActive)

			got, err = repo.GetByUsername(ctx, "alice")
			require.NoError(t, err)
			require.False(t, got.IsActive)
		})
	}
}

func TestCachedUserRepository_EnableAfterDisable(t *testing.T) {
	for name, newCache := range caches() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := repository.NewCachedUserRepository(memory.NewUserRepository(), newCache(t), time.Minute, zerolog.Nop())

			_, err := repo.Create(ctx, "alice", "h")
			require.NoError(t, err)

			for _, active := range []bool{false, true, false} {
				require.NoError(t, repo.SetActive(ctx, "alice", active))
				got, err := repo.GetByUsername(ctx, "alice")
				require.NoError(t, err)
				require.Equal(t, active, got.IsActive)
			}
		})
	}
}

func TestCachedUserRepository_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserRepository()
	cache := memcache.NewCache(0)
	defer cache.Stop()
	repo := repository.NewCachedUserRepository(store, cache, time.Minute, zerolog.Nop())

	_, err := repo.GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = store.Create(ctx, "alice", "h")
	require.NoError(t, err)

	_, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
}

func TestCachedUserRepository_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	cache := memcache.NewCache(0)
	defer cache.Stop()
	repo := repository.NewCachedUserRepository(memory.NewUserRepository(), cache, time.Minute, zerolog.Nop())

	_, err := repo.Create(ctx, "alice", "h")
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, repository.CacheKeys.UserByUsername("alice"), []byte("{not json"), 0))

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "h", got.PasswordHash)
}

func TestCachedUserRepository_RedisDown(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	repo := repository.NewCachedUserRepository(memory.NewUserRepository(), rediscache.NewCache(client, "warden:"), time.Minute, zerolog.Nop())
	_, err = repo.Create(ctx, "alice", "h")
	require.NoError(t, err)

	mr.Close()

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	require.NoError(t, repo.SetActive(ctx, "alice", false))
}

func TestCachedUserRepository_TTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := repository.NewCachedUserRepository(memory.NewUserRepository(), rediscache.NewCache(client, "warden:"), 30*time.Second, zerolog.Nop())
	_, err := repo.Create(ctx, "alice", "h")
	require.NoError(t, err)
	_, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	key := "warden:" + repository.CacheKeys.UserByUsername("alice")
	require.True(t, mr.Exists(key))
	require.Equal(t, 30*time.Second, mr.TTL(key))

	mr.FastForward(31 * time.Second)
	require.False(t, mr.Exists(key))
}
