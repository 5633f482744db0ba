package models

import "errors"

var (
	// ErrNotFound marks an operation on an id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks input rejected by validation.
	ErrInvalid = errors.New("invalid input")
	// ErrConflict marks a uniqueness violation.
	ErrConflict = errors.New("conflict")
)
