package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned on unique-constraint conflicts (e.g. a
	// duplicate user email).
	ErrAlreadyExists = errors.New("already exists")
)
