package router

import "errors"

// Sentinel errors for route registration and resolution.
var (
	// ErrDuplicateRoute is returned when a (method, path) pair is
	// registered twice.
	ErrDuplicateRoute = errors.New("router: duplicate route")

	// ErrNotFound is returned when no route matches a path.
	ErrNotFound = errors.New("router: no route")

	// ErrMethodNotAllowed is returned when the path matches but the method
	// has no handler.
	ErrMethodNotAllowed = errors.New("router: method not allowed")

	// ErrInvalidPattern is returned for malformed route patterns.
	ErrInvalidPattern = errors.New("router: invalid pattern")

	// ErrNoHistory is returned by Back/Forward at the end of the stack.
	ErrNoHistory = errors.New("router: no history entry")
)
