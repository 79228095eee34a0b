package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/repository"
)

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name     string
		username string
		hash     string
		wantErr  error
	}{
		{name: "valid", username: "alice", hash: "h"},
		{name: "empty username", username: "", hash: "h", wantErr: domain.ErrEmptyUsername},
		{name: "empty hash", username: "alice", hash: "", wantErr: domain.ErrEmptyPasswordHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewUserRepository()
			user, err := repo.Create(context.Background(), tt.username, tt.hash)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, int64(1), user.ID)
			require.True(t, user.IsActive)
		})
	}
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", "h1")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "alice", "h2")
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "alice", domainErr.Resource)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "h1", got.PasswordHash)
}

func TestUserRepository_CreateConcurrent(t *testing.T) {
	repo := NewUserRepository()

	const workers = 32
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		dupes   atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(context.Background(), "bob", "h")
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, domain.ErrUserAlreadyExists):
				dupes.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), created.Load())
	require.Equal(t, int32(workers-1), dupes.Load())
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "h")
	require.NoError(t, err)
	created.IsActive = false
	created.PasswordHash = "tampered"

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, got.IsActive)
	require.Equal(t, "h", got.PasswordHash)
}

func TestUserRepository_SetActive(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", "h")
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(ctx, "alice", false))
	require.NoError(t, repo.SetActive(ctx, "alice", false))

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Equal(t, domain.AccountDisabled, got.State())

	require.ErrorIs(t, repo.SetActive(ctx, "ghost", false), domain.ErrUserNotFound)
	_, err = repo.GetByUsername(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_List(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := repo.Create(ctx, name, "h")
		require.NoError(t, err)
	}

	res, err := repo.List(ctx, repository.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Total)
	require.Len(t, res.Items, 2)
	require.Equal(t, "carol", res.Items[0].Username)
	require.Equal(t, "alice", res.Items[1].Username)

	res, err = repo.List(ctx, repository.ListOptions{Offset: 10})
	require.NoError(t, err)
	require.Empty(t, res.Items)
}

func TestUserRepository_CancelledContext(t *testing.T) {
	repo := NewUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Create(ctx, "alice", "h")
	require.ErrorIs(t, err, context.Canceled)
}
