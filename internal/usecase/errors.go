package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	// ErrInvariant marks programming-invariant violations (a game referencing
	// a post that does not exist). These are fatal for the affected game and
	// must not be retried.
	ErrInvariant             = errors.New("invariant violation")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
