package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrRunsNotConfigured = errors.New("run repository not configured")
	ErrRunIDRequired     = errors.New("run id is required")
	ErrLockKeyRequired   = errors.New("lock key cannot be empty")
	ErrLockTokenRequired = errors.New("lock token cannot be empty")
)
