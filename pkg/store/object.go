package store

import (
	"context"
	"reflect"
	"sync"

	"github.com/teakit-dev/teakit/pkg/observer"
)

// Schema declares the named attributes of an Object and their initial
// values. Schemas are templates: every Object constructed from one gets its
// own holders, so instances never share state.
type Schema map[string]any

// Object is a standalone observable container. Each named attribute is
// backed by its own (value, equality) holder; assignment through SetProperty
// compares old against new and, when bound to a manager, feeds the mutation
// into the dispatch engine. It implements observer.Component.
type Object struct {
	id string

	mu    sync.RWMutex
	attrs map[string]any

	// manager receives Notify calls for attribute changes; nil until Bind.
	manager *observer.Manager

	// ctx is used for dispatches triggered by mutations on this object.
	ctx context.Context
}

var _ observer.Component = (*Object)(nil)

// NewObject creates a container with the given id and its own copy of the
// schema's initial values.
func NewObject(id string, schema Schema) *Object {
	attrs := make(map[string]any, len(schema))
	for name, initial := range schema {
		attrs[name] = initial
	}
	return &Object{
		id:    id,
		attrs: attrs,
		ctx:   context.Background(),
	}
}

// Bind registers the object as a component of the manager and routes every
// subsequent attribute change through the dispatch engine.
func (o *Object) Bind(m *observer.Manager) *Object {
	o.mu.Lock()
	o.manager = m
	o.mu.Unlock()
	if m != nil {
		m.RegisterComponent(o)
	}
	return o
}

// WithContext sets the context used for dispatches triggered by mutations.
func (o *Object) WithContext(ctx context.Context) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx != nil {
		o.ctx = ctx
	}
	return o
}

// ID returns the component id.
func (o *Object) ID() string {
	return o.id
}

// GetProperty returns the current value of a named attribute.
func (o *Object) GetProperty(name string) (any, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.attrs[name]
	if !ok {
		return nil, observer.ErrUnknownProperty
	}
	return v, nil
}

// SetProperty assigns a named attribute. A real change (old != new) is
// forwarded to the bound manager with the pre-mutation snapshot, which is
// what select-on-own-trigger dependencies observe.
func (o *Object) SetProperty(name string, value any) error {
	o.mu.Lock()
	oldValue, ok := o.attrs[name]
	if !ok {
		o.mu.Unlock()
		return observer.ErrUnknownProperty
	}
	changed := !reflect.DeepEqual(oldValue, value)
	if changed {
		o.attrs[name] = value
	}
	m := o.manager
	ctx := o.ctx
	o.mu.Unlock()

	if !changed || m == nil {
		return nil
	}
	return m.Notify(ctx, o.id, name, oldValue, value)
}

// Announce publishes an event from this object through the bound manager.
// The event name is derived from the payload type.
func (o *Object) Announce(event any) error {
	o.mu.RLock()
	m := o.manager
	ctx := o.ctx
	o.mu.RUnlock()
	if m == nil {
		return nil
	}
	return m.Publish(ctx, o.id, event)
}

// Properties returns the attribute names, for introspection and tests.
func (o *Object) Properties() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.attrs))
	for name := range o.attrs {
		names = append(names, name)
	}
	return names
}
