package mux

import "errors"

var (
	// ErrInvalidPattern is returned for a route pattern that cannot be
	// compiled.
	ErrInvalidPattern = errors.New("mux: invalid route pattern")

	// ErrInvalidRoute is returned for a method entry that cannot be
	// registered.
	ErrInvalidRoute = errors.New("mux: invalid route")

	// ErrDuplicateMethod is returned when a method is registered twice under
	// one pattern.
	ErrDuplicateMethod = errors.New("mux: duplicate method")
)
