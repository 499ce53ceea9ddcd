package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConstraint is returned when a write would store a degenerate
	// interval (start >= end) or otherwise violate a schema constraint
	ErrConstraint = errors.New("constraint violation")

	// ErrLocked is returned when the store is held by another process
	ErrLocked = errors.New("resource locked by another process")

	// ErrDuplicate is returned when a unique constraint fails
	ErrDuplicate = errors.New("duplicate entry")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
