package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail indicates a unique-email constraint violation.
	ErrDuplicateEmail = errors.New("repository: duplicate email")
)
