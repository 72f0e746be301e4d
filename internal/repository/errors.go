package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated,
	// such as a second active reservation for the same trip and passenger.
	ErrDuplicate = errors.New("duplicate entity")
)
