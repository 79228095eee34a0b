// Package service provides business logic services for Warden.
package service

import "errors"

// Common service errors.
var (
	// ErrInternalError wraps infrastructure failures (store, cache, hashing).
	// Domain outcomes are returned as their domain sentinels instead.
	ErrInternalError = errors.New("internal server error")
)
