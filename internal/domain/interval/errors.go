package interval

import "errors"

var (
	// ErrIntervalNotFound indicates the interval doesn't exist.
	ErrIntervalNotFound = errors.New("interval not found")
	// ErrDegenerateInterval indicates start >= end. Zero-length intervals
	// are deleted, never stored.
	ErrDegenerateInterval = errors.New("interval start must be before end")
	// ErrInvalidInput indicates invalid input for interval operations.
	ErrInvalidInput = errors.New("invalid interval input")
)
