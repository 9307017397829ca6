package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrNotActive is returned by guarded status transitions when the
	// reservation is not in the active state anymore.
	ErrNotActive = errors.New("reservation is not active")
)
