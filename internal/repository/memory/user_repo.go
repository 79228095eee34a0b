// Package memory provides an in-process credential store.
// Records live in a map guarded by a single RWMutex; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/repository"
)

// UserRepository implements repository.UserRepository in memory.
type UserRepository struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	nextID int64
}

// NewUserRepository creates an empty in-memory user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:  make(map[string]*domain.User),
		nextID: 1,
	}
}

// Create inserts a new user. Check and insert happen under one write lock.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, domain.ErrEmptyUsername
	}
	if passwordHash == "" {
		return nil, domain.ErrEmptyPasswordHash
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[username]; exists {
		return nil, domain.NewDomainError(domain.ErrUserAlreadyExists, "username taken", username)
	}

	user := domain.NewUser(username, passwordHash)
	user.ID = r.nextID
	r.nextID++
	r.users[username] = user

	return user.Clone(), nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[username]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	return user.Clone(), nil
}

// SetActive sets the active flag of a user.
func (r *UserRepository) SetActive(ctx context.Context, username string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[username]
	if !exists {
		return domain.ErrUserNotFound
	}
	user.IsActive = active
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// List returns users ordered by ID with pagination.
func (r *UserRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	all := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	start := opts.Offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	return &repository.ListResult[domain.User]{
		Items:  all[start:end],
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// Ping always succeeds.
func (r *UserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Health always succeeds.
func (r *UserRepository) Health(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (r *UserRepository) Close() error {
	return nil
}

// Migrate is a no-op; the map needs no schema.
func (r *UserRepository) Migrate(ctx context.Context) error {
	return nil
}

// Version always reports 0.
func (r *UserRepository) Version(ctx context.Context) (int64, error) {
	return 0, nil
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.DatabaseHealth = (*UserRepository)(nil)
	_ repository.Migrator       = (*UserRepository)(nil)
)
