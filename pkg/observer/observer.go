package observer

import (
	"context"
	"strings"
)

// noUpdate is the unexported type behind the NoUpdate sentinel.
type noUpdate struct{}

// NoUpdate is the "skip writing this output" sentinel. Returned as a whole
// result it suppresses every update; returned in one slot of a result slice
// it drops only that slot without failing the dispatch.
var NoUpdate = noUpdate{}

// Args is the positional argument list passed to a callback: publications
// first, then value-triggers, then selects. Updates never appear.
type Args []any

// Updates is the normalized result of a dispatch, keyed by target id and
// then property name.
type Updates map[string]map[string]any

// set records one output value, allocating the inner map on first use.
func (u Updates) set(id, property string, value any) {
	m, ok := u[id]
	if !ok {
		m = make(map[string]any)
		u[id] = m
	}
	m[property] = value
}

// Callback is the user function an Observer runs. The result may be a single
// value (one update dependency), a []any zipped positionally against the
// update list, or the NoUpdate sentinel. Returning ErrSkipDispatch skips the
// dispatch silently; any other error is routed to the error hook.
type Callback func(ctx context.Context, args Args) (any, error)

// BoundCallback is a method-style callback bound late to an instance. The
// instance is resolved from the registry's binder table at dispatch time, so
// the callback can be declared before the instance exists.
type BoundCallback func(ctx context.Context, self any, args Args) (any, error)

// Observer is one registered reactive rule: ordered dependency lists plus
// the user callback. Observers are built once at registration time and never
// mutated afterward, except for the one-time late binding of an instance key.
type Observer struct {
	publications  []Dependency
	modifications []Dependency
	selects       []Dependency
	updates       []Dependency

	fn      Callback
	boundFn BoundCallback

	// instanceKey names the bound instance in the registry's binder table.
	// Empty for plain function callbacks.
	instanceKey string
	binder      *Binder

	// external marks the observer for delegation via the SendCallback hook
	// instead of local execution.
	external bool

	// id is the canonical identity, derived from trigger and update sets.
	id string
}

// ID returns the canonical identity string: "id@property" for every trigger
// dependency joined by commas, "->", then every update dependency. It doubles
// as the deduplication key and the handle used for external delegation.
func (o *Observer) ID() string {
	return o.id
}

// External reports whether dispatches delegate through SendCallback.
func (o *Observer) External() bool {
	return o.external
}

// Publications returns the trigger-by-event dependencies in argument order.
func (o *Observer) Publications() []Dependency { return o.publications }

// Modifications returns the trigger-by-value dependencies in argument order.
func (o *Observer) Modifications() []Dependency { return o.modifications }

// Selects returns the non-triggering read dependencies in argument order.
func (o *Observer) Selects() []Dependency { return o.selects }

// Updates returns the output dependencies in result order.
func (o *Observer) Updates() []Dependency { return o.updates }

// triggers returns publications followed by modifications.
func (o *Observer) triggers() []Dependency {
	out := make([]Dependency, 0, len(o.publications)+len(o.modifications))
	out = append(out, o.publications...)
	out = append(out, o.modifications...)
	return out
}

// canonicalID builds the identity string from trigger and update sets.
func canonicalID(triggers, updates []Dependency) string {
	var b strings.Builder
	for i, d := range triggers {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d.Key())
	}
	b.WriteString("->")
	for i, d := range updates {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d.Key())
	}
	return b.String()
}

// Callback resolves the function to run, invokes it, and normalizes the
// result into an Updates map:
//
//  1. A bound callback resolves its instance through the binder table; a
//     detached instance fails closed (silent skip), never crashes.
//  2. The NoUpdate sentinel, or an observer with no update dependencies,
//     produces no updates.
//  3. With exactly one update dependency the result is treated as a
//     one-element result sequence.
//  4. Otherwise the result sequence is zipped positionally against the
//     update list; NoUpdate slots are dropped. An empty survivor set
//     produces nil.
func (o *Observer) Callback(ctx context.Context, args Args) (Updates, error) {
	var result any
	var err error

	switch {
	case o.boundFn != nil:
		instance, ok := o.binder.Resolve(o.instanceKey)
		if !ok {
			// Instance detached or never attached: fail closed.
			return nil, ErrSkipDispatch
		}
		result, err = o.boundFn(ctx, instance, args)
	case o.fn != nil:
		result, err = o.fn(ctx, args)
	default:
		return nil, newObserverError(o.id, "callback", ErrUnknownObserver)
	}
	if err != nil {
		return nil, err
	}

	return o.normalize(result)
}

// normalize maps a raw callback result onto the update dependency list.
func (o *Observer) normalize(result any) (Updates, error) {
	if len(o.updates) == 0 {
		return nil, nil
	}
	if _, ok := result.(noUpdate); ok {
		return nil, nil
	}

	var values []any
	if len(o.updates) == 1 {
		values = []any{result}
	} else {
		seq, ok := result.([]any)
		if !ok {
			return nil, newObserverError(o.id, "normalize", ErrBadResult)
		}
		values = seq
	}

	updates := make(Updates)
	for i, dep := range o.updates {
		if i >= len(values) {
			break
		}
		if _, skip := values[i].(noUpdate); skip {
			continue
		}
		updates.set(dep.TargetID, dep.TargetProperty, values[i])
	}
	if len(updates) == 0 {
		return nil, nil
	}
	return updates, nil
}
