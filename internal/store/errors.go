package store

import "errors"

var (
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken marks a signup against an already-registered username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrQuotaExhausted marks a decrement against a zero (or missing) quota.
	// It is a reportable condition, not a failure: the submission itself
	// stays logged.
	ErrQuotaExhausted = errors.New("no submissions left")
)
