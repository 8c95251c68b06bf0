package observer

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatch engine.
var (
	// ErrSkipDispatch is the deliberate "skip this dispatch" signal. A
	// callback or argument resolver returning it short-circuits the
	// dispatch silently: no invocation, no update, no log entry.
	ErrSkipDispatch = errors.New("observer: skip dispatch")

	// ErrUnknownObserver is returned by delegation when a canonical id has
	// no registered observer. It propagates to the delegation caller.
	ErrUnknownObserver = errors.New("observer: unknown observer")

	// ErrBadResult is returned when a callback's result cannot be zipped
	// against the observer's update dependencies.
	ErrBadResult = errors.New("observer: callback result does not match update list")

	// ErrUnknownProperty is returned by property accessors for names that
	// were never defined on the component.
	ErrUnknownProperty = errors.New("observer: unknown property")
)

// ObserverError wraps an error with observer context for the error hook.
type ObserverError struct {
	ObserverID string
	Op         string // Operation that failed: "resolve", "callback", "apply"
	Err        error  // Underlying error
}

// Error returns the error message with observer context.
func (e *ObserverError) Error() string {
	if e.ObserverID == "" {
		return fmt.Sprintf("observer: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("observer: %s: %s: %v", e.ObserverID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ObserverError) Unwrap() error {
	return e.Err
}

// newObserverError creates an ObserverError.
func newObserverError(observerID, op string, err error) *ObserverError {
	return &ObserverError{
		ObserverID: observerID,
		Op:         op,
		Err:        err,
	}
}
