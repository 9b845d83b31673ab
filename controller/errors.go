package controller

import "errors"

var (
	// ErrInvalidAction is returned for an Action without a controller or
	// action identifier.
	ErrInvalidAction = errors.New("controller: action must name a controller and an action")

	// ErrInvalidController is returned when a controller registration or
	// factory result is unusable.
	ErrInvalidController = errors.New("controller: invalid controller")

	// ErrDuplicateController is returned when an identifier is registered twice.
	ErrDuplicateController = errors.New("controller: controller already registered")

	// ErrUnknownController is returned when no controller is registered
	// under an identifier.
	ErrUnknownController = errors.New("controller: unknown controller")

	// ErrUnknownAction is returned when a controller has no action with
	// the requested identifier.
	ErrUnknownAction = errors.New("controller: unknown action")

	// ErrDecoratorConflict is returned when a decorator contributes a
	// variable that already exists. Decorators may only add variables.
	ErrDecoratorConflict = errors.New("controller: decorators cannot modify existing template variables")

	// ErrBodyPathConflict is returned when both a controller-relative and a
	// full body template path are given.
	ErrBodyPathConflict = errors.New("controller: cannot specify both a full and a relative body template path")

	// ErrInvalidRedirectStatus is returned for redirect status codes outside
	// 300-399.
	ErrInvalidRedirectStatus = errors.New("controller: invalid status code for redirect")
)
