package errors

import "errors"

var (
	ErrNotFound = errors.New("locker not found")

	ErrInvalidID = errors.New("invalid locker ID format")

	ErrDuplicateNumber = errors.New("locker number already exists")
)
