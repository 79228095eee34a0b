// Package domain contains the core business entities for Warden.
// These are pure Go structs with no external dependencies, representing
// user credentials and the account lifecycle.
package domain

import (
	"time"
)

// User represents a registered user in the system.
type User struct {
	// ID is the unique identifier for the user (assigned by the store).
	ID int64 `json:"id"`

	// Username is the unique username used for login. Immutable.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// IsActive indicates whether the user account is active.
	// Inactive users cannot log in.
	IsActive bool `json:"is_active"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new, active User with default values.
func NewUser(username, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the user is allowed to authenticate.
func (u *User) CanAuthenticate() bool {
	return u.IsActive
}

// State returns the account state derived from the active flag.
func (u *User) State() AccountState {
	if u.IsActive {
		return AccountActive
	}
	return AccountDisabled
}

// Clone returns a copy of the user that shares no state with the receiver.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// AccountState is the authentication eligibility of a user.
type AccountState string

const (
	// AccountActive means the user may log in.
	AccountActive AccountState = "active"

	// AccountDisabled means the user's credentials are kept but login is refused.
	AccountDisabled AccountState = "disabled"
)

// IsValid checks if the account state is valid.
func (s AccountState) IsValid() bool {
	return s == AccountActive || s == AccountDisabled
}

