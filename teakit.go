// Package teakit is the public API for the teakit extension layer: a path
// router and a reactive observer-dispatch engine for terminal UI programs.
//
// This is the recommended import for most applications:
//
//	import "github.com/teakit-dev/teakit"
//
// Usage:
//
//	teakit.When(
//	    teakit.Modified("ping", "value"),
//	    teakit.Select("store", "history"),
//	    teakit.Update("pong", "value"),
//	).Do(func(ctx context.Context, args teakit.Args) (any, error) {
//	    return fmt.Sprintf("saw %v", args[0]), nil
//	})
package teakit

import (
	"github.com/teakit-dev/teakit/pkg/observer"
)

// Version is the teakit release version.
const Version = "0.3.0"

// Re-exported core types, so simple programs only import teakit.
type (
	// Dependency identifies a target by id and property plus its role.
	Dependency = observer.Dependency

	// Observer is one registered reactive rule.
	Observer = observer.Observer

	// Manager is the dispatch engine.
	Manager = observer.Manager

	// Registry indexes observers by trigger target and canonical id.
	Registry = observer.Registry

	// Args is the positional callback argument list.
	Args = observer.Args

	// Updates is the normalized per-target result map.
	Updates = observer.Updates

	// Component is the host-facing property accessor pair.
	Component = observer.Component

	// Hooks are the pluggable host seams.
	Hooks = observer.Hooks
)

// NoUpdate is the "skip writing this output" sentinel.
var NoUpdate = observer.NoUpdate

// Modified declares a trigger-by-value dependency.
func Modified(target any, property string) Dependency {
	return observer.Modified(target, property)
}

// Published declares a trigger-by-event dependency.
func Published(target any, event any) Dependency {
	return observer.Published(target, event)
}

// Select declares a non-triggering read dependency.
func Select(target any, property string) Dependency {
	return observer.Select(target, property)
}

// Update declares an output dependency.
func Update(target any, property string) Dependency {
	return observer.Update(target, property)
}

// When registers into the process-wide registry, visible to every manager
// that uses it as its global fallback.
func When(deps ...Dependency) *observer.Binding {
	return observer.When(deps...)
}

// NewManager creates a dispatch engine with an instance-local registry.
func NewManager(opts ...observer.ManagerOption) *Manager {
	return observer.NewManager(opts...)
}

// NewRegistry creates an empty registry, for hosts that want an explicit
// process-wide registry instead of the package default.
func NewRegistry() *Registry {
	return observer.NewRegistry()
}
