package observer

import (
	"context"
)

// Component is the host-facing view of an addressable piece of state: a
// stable id plus an explicit accessor/mutator pair per property. No
// catch-all attribute interception; unknown names return ErrUnknownProperty.
type Component interface {
	Identifiable

	// GetProperty returns the current value of a named property.
	GetProperty(name string) (any, error)

	// SetProperty assigns a named property.
	SetProperty(name string, value any) error
}

// Hooks are the pluggable host-facing seams of the dispatch engine. Any nil
// field falls back to the manager default.
type Hooks struct {
	// GetComponent is the idempotent component lookup. The default consults
	// the manager's own component table.
	GetComponent func(id string) (Component, bool)

	// ApplyUpdate writes one output value. The default is a plain
	// SetProperty call; hosts may special-case particular properties.
	ApplyUpdate func(ctx context.Context, observerID string, c Component, id, property string, value any) error

	// GetCallbackArg reads one live argument value. The default is a plain
	// GetProperty call, returning ErrSkipDispatch when the component is
	// unavailable.
	GetCallbackArg func(ctx context.Context, observerID, id, property string) (any, error)

	// OnCallbackError is the single error-reporting seam. The default logs
	// a structured line with the observer's canonical id and a stack trace.
	// Fatal conditions surface as panics and are never routed here.
	OnCallbackError func(observerID string, err error)

	// SendCallback is the seam for remote execution of external observers.
	// Given a previously issued canonical id and the positional arguments a
	// local dispatch would have computed, it returns the same shaped result
	// map or an error. The default forwards to the local observer (with a
	// warning that it is a placeholder), returning ErrUnknownObserver for
	// unregistered ids.
	SendCallback func(ctx context.Context, observerID string, args Args) (Updates, error)
}

// merged returns h with nil fields replaced by defaults.
func (h Hooks) merged(defaults Hooks) Hooks {
	if h.GetComponent == nil {
		h.GetComponent = defaults.GetComponent
	}
	if h.ApplyUpdate == nil {
		h.ApplyUpdate = defaults.ApplyUpdate
	}
	if h.GetCallbackArg == nil {
		h.GetCallbackArg = defaults.GetCallbackArg
	}
	if h.OnCallbackError == nil {
		h.OnCallbackError = defaults.OnCallbackError
	}
	if h.SendCallback == nil {
		h.SendCallback = defaults.SendCallback
	}
	return h
}
