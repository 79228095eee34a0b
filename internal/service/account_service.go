// Package service provides business logic services for Warden.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/metrics"
	"github.com/prn-tf/warden/internal/pkg/crypto"
	"github.com/prn-tf/warden/internal/repository"
)

// AccountService handles account creation, login and the active/disabled
// lifecycle. It holds no locks of its own; atomicity lives in the store.
type AccountService struct {
	userRepo repository.UserRepository
	hasher   crypto.PasswordHasher
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewAccountService creates a new AccountService. m may be nil.
func NewAccountService(
	userRepo repository.UserRepository,
	hasher crypto.PasswordHasher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		userRepo: userRepo,
		hasher:   hasher,
		metrics:  m,
		logger:   logger.With().Str("service", "account").Logger(),
	}
}

// CreateUser hashes the password and inserts a new active user.
// Returns domain.ErrUserAlreadyExists if the username is taken and
// domain.ErrPasswordTooLong if the password cannot be hashed for its length.
func (s *AccountService) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	// Hash before touching the store so no write path waits on bcrypt.
	start := time.Now()
	passwordHash, err := s.hasher.Hash(password)
	s.metrics.ObserveHash(time.Since(start))
	if errors.Is(err, crypto.ErrPasswordTooLong) {
		s.metrics.RecordUserCreate("invalid")
		return nil, domain.NewDomainError(domain.ErrPasswordTooLong, fmt.Sprintf("limit is %d bytes", crypto.MaxPasswordBytes), username)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		s.metrics.RecordUserCreate("error")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user, err := s.userRepo.Create(ctx, username, passwordHash)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			s.logger.Debug().Str("username", username).Msg("username already taken")
			s.metrics.RecordUserCreate("duplicate")
			return nil, err
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to create user")
		s.metrics.RecordUserCreate("error")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.metrics.RecordUserCreate("created")
	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user created")

	return user, nil
}

// Login verifies a username/password pair.
//
// An unknown username and a wrong password both yield LoginInvalidCredentials.
// The password is checked before the active flag, so a disabled account only
// reports LoginAccountDisabled to a caller who knows the password.
// The error is non-nil only for infrastructure failures.
func (s *AccountService) Login(ctx context.Context, username, password string) (domain.LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.CompareDummy(password)
			s.logger.Debug().Str("username", username).Msg("unknown user attempted login")
			return s.loginResult(domain.LoginInvalidCredentials), nil
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to look up user")
		s.metrics.RecordLogin("error")
		return domain.LoginInvalidCredentials, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, crypto.ErrPasswordMismatch) {
			// A hash bcrypt cannot parse never authenticates anyone.
			s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("stored password hash is unusable")
		} else {
			s.logger.Debug().Str("username", username).Msg("invalid password during login")
		}
		return s.loginResult(domain.LoginInvalidCredentials), nil
	}

	if !user.CanAuthenticate() {
		s.logger.Debug().Str("username", username).Msg("disabled user attempted login")
		return s.loginResult(domain.LoginAccountDisabled), nil
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user logged in")

	return s.loginResult(domain.LoginSuccess), nil
}

func (s *AccountService) loginResult(r domain.LoginResult) domain.LoginResult {
	s.metrics.RecordLogin(r.String())
	return r
}

// DisableUser moves the account to the disabled state. Disabling a disabled
// account succeeds. Returns domain.ErrUserNotFound if absent.
func (s *AccountService) DisableUser(ctx context.Context, username string) error {
	return s.setActive(ctx, username, false)
}

// EnableUser moves the account to the active state. Enabling an active
// account succeeds. Returns domain.ErrUserNotFound if absent.
func (s *AccountService) EnableUser(ctx context.Context, username string) error {
	return s.setActive(ctx, username, true)
}

func (s *AccountService) setActive(ctx context.Context, username string, active bool) error {
	action := "disable"
	if active {
		action = "enable"
	}

	if err := s.userRepo.SetActive(ctx, username, active); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.RecordStatusChange(action, "not_found")
			return err
		}
		s.logger.Error().Err(err).Str("username", username).Str("action", action).Msg("failed to update user status")
		s.metrics.RecordStatusChange(action, "error")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.metrics.RecordStatusChange(action, "ok")
	s.logger.Info().
		Str("username", username).
		Bool("is_active", active).
		Msg("user active status updated")

	return nil
}

// GetUser retrieves a user by username.
func (s *AccountService) GetUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// ListUsersInput contains pagination options for listing users.
type ListUsersInput struct {
	Limit  int
	Offset int
}

// ListUsersOutput contains the result of listing users.
type ListUsersOutput struct {
	Users      []*domain.User
	TotalCount int64
}

// ListUsers returns users with pagination.
func (s *AccountService) ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	result, err := s.userRepo.List(ctx, repository.ListOptions{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListUsersOutput{
		Users:      result.Items,
		TotalCount: result.Total,
	}, nil
}
