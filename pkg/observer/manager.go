package observer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Handler is one generated dispatch closure. The host calls it with the
// pre-mutation and post-mutation values of the firing property (for events,
// old is nil and new is the payload). The returned error is reserved for
// context cancellation; observer failures are contained and reported through
// the error hook instead.
type Handler func(ctx context.Context, oldValue, newValue any) error

// Dispatch carries the identity of one in-flight dispatch through the
// middleware chain.
type Dispatch struct {
	// ID is a per-dispatch ULID used for log and trace correlation.
	ID string

	// Observer is the rule being dispatched.
	Observer *Observer

	// TargetID and TargetProperty identify the firing trigger.
	TargetID       string
	TargetProperty string
}

// DispatchFunc invokes an observer's callback with resolved arguments.
type DispatchFunc func(ctx context.Context, d *Dispatch, args Args) (Updates, error)

// DispatchMiddleware wraps callback invocation, in the manner of HTTP
// middleware. Metrics and tracing layers live here so the engine core stays
// free of observability concerns.
type DispatchMiddleware func(next DispatchFunc) DispatchFunc

// Manager is the dispatch engine: an instance-local registry layered over a
// shared global one, the host-facing hooks, and the middleware chain. A
// property mutation in the host flows through GenerateHandlers into argument
// resolution, callback invocation, result normalization, and update
// application, with per-observer failure containment at every stage.
type Manager struct {
	global *Registry
	local  *Registry

	hooks  Hooks
	logger *slog.Logger

	middleware []DispatchMiddleware

	// components is the default component table behind the GetComponent
	// hook. Hosts with their own component model override the hook instead.
	compMu     sync.RWMutex
	components map[string]Component
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithGlobalRegistry sets the process-wide registry the manager falls back
// to. Defaults to Default().
func WithGlobalRegistry(r *Registry) ManagerOption {
	return func(m *Manager) {
		if r != nil {
			m.global = r
		}
	}
}

// WithHooks overrides host-facing hooks. Nil fields keep their defaults.
func WithHooks(h Hooks) ManagerOption {
	return func(m *Manager) {
		m.hooks = h
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a dispatch engine with an empty instance-local
// registry, falling back to the process-wide registry for lookups.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		global:     defaultRegistry,
		local:      NewRegistry(),
		logger:     slog.Default(),
		components: make(map[string]Component),
	}

	for _, opt := range opts {
		opt(m)
	}
	m.hooks = m.hooks.merged(m.defaultHooks())

	return m
}

// When registers into the manager's instance-local registry.
func (m *Manager) When(deps ...Dependency) *Binding {
	return m.local.When(deps...)
}

// Local returns the instance-local registry.
func (m *Manager) Local() *Registry {
	return m.local
}

// Global returns the registry used as the process-wide fallback.
func (m *Manager) Global() *Registry {
	return m.global
}

// Use appends dispatch middleware. Middleware wraps callback invocation in
// registration order, outermost first.
func (m *Manager) Use(mw ...DispatchMiddleware) {
	m.middleware = append(m.middleware, mw...)
}

// Attach completes late binding for observers declared with BoundTo(key),
// in both the global and local registries.
func (m *Manager) Attach(key string, instance any) {
	m.global.Attach(key, instance)
	m.local.Attach(key, instance)
}

// Detach removes an instance binding from both registries on teardown.
func (m *Manager) Detach(key string) {
	m.global.Detach(key)
	m.local.Detach(key)
}

// RegisterComponent adds a component to the manager's table, making it
// reachable through the default GetComponent hook.
func (m *Manager) RegisterComponent(c Component) {
	if c == nil {
		return
	}
	m.compMu.Lock()
	defer m.compMu.Unlock()
	m.components[c.ID()] = c
}

// UnregisterComponent removes a component from the table. Dispatches whose
// update targets point at it abort silently from then on.
func (m *Manager) UnregisterComponent(id string) {
	m.compMu.Lock()
	defer m.compMu.Unlock()
	delete(m.components, id)
}

// GenerateHandlers returns one dispatch closure per observer registered for
// (id, property): global-registry observers first, then local ones. The
// ordering covers generation only; hosts that run handlers concurrently get
// whatever completion order the scheduler provides.
func (m *Manager) GenerateHandlers(id, property string) []Handler {
	var handlers []Handler
	for _, o := range m.global.ObserversFor(id, property) {
		handlers = append(handlers, m.handlerFor(o, id, property))
	}
	for _, o := range m.local.ObserversFor(id, property) {
		handlers = append(handlers, m.handlerFor(o, id, property))
	}
	return handlers
}

// Notify runs every handler for a property mutation, in generation order.
// The old value is the pre-mutation snapshot, which is what any select
// dependency on the firing property observes.
func (m *Manager) Notify(ctx context.Context, id, property string, oldValue, newValue any) error {
	for _, h := range m.GenerateHandlers(id, property) {
		if err := h(ctx, oldValue, newValue); err != nil {
			return err
		}
	}
	return nil
}

// Publish runs every handler for an announced event. The event name is
// derived from the payload type (see EventName); the payload travels as the
// new value and there is no pre-mutation snapshot.
func (m *Manager) Publish(ctx context.Context, id string, event any) error {
	return m.Notify(ctx, id, EventName(event), nil, event)
}

// handlerFor builds the dispatch closure for one observer and one firing
// trigger, implementing the argument resolution and containment rules.
func (m *Manager) handlerFor(o *Observer, id, property string) Handler {
	return func(ctx context.Context, oldValue, newValue any) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		d := &Dispatch{
			ID:             ulid.Make().String(),
			Observer:       o,
			TargetID:       id,
			TargetProperty: property,
		}

		// Resolve every update target first. A missing target is an
		// expected condition (not yet mounted, already torn down): abort
		// with no argument resolution, no invocation, and no log entry.
		targets := make(map[string]Component, len(o.updates))
		for _, dep := range o.updates {
			if _, ok := targets[dep.TargetID]; ok {
				continue
			}
			c, ok := m.hooks.GetComponent(dep.TargetID)
			if !ok {
				return nil
			}
			targets[dep.TargetID] = c
		}

		args, ok := m.resolveArgs(ctx, d, oldValue, newValue)
		if !ok {
			return nil
		}

		updates, err := m.invoke(ctx, d, args)
		if err != nil {
			if errors.Is(err, ErrSkipDispatch) {
				return nil
			}
			m.hooks.OnCallbackError(o.id, newObserverError(o.id, "callback", err))
			return nil
		}

		m.apply(ctx, d, targets, updates)
		return nil
	}
}

// resolveArgs builds the positional argument list: publications, then value
// triggers, then selects. Reports false when the dispatch must be aborted.
func (m *Manager) resolveArgs(ctx context.Context, d *Dispatch, oldValue, newValue any) (Args, bool) {
	o := d.Observer
	args := make(Args, 0, len(o.publications)+len(o.modifications)+len(o.selects))

	firing := Dependency{TargetID: d.TargetID, TargetProperty: d.TargetProperty}

	// Events have no persisted state: only the actual trigger carries the
	// payload, every other publication argument is nil.
	for _, dep := range o.publications {
		if dep.Equal(firing) {
			args = append(args, newValue)
		} else {
			args = append(args, nil)
		}
	}

	for _, dep := range o.modifications {
		if dep.Equal(firing) {
			args = append(args, newValue)
			continue
		}
		v, ok := m.fetchArg(ctx, d, dep)
		if !ok {
			return nil, false
		}
		args = append(args, v)
	}

	// A select on the firing property observes the pre-mutation snapshot;
	// it can never see its own trigger's new value.
	for _, dep := range o.selects {
		if dep.Equal(firing) {
			args = append(args, oldValue)
			continue
		}
		v, ok := m.fetchArg(ctx, d, dep)
		if !ok {
			return nil, false
		}
		args = append(args, v)
	}

	return args, true
}

// fetchArg resolves one live value through the GetCallbackArg hook. A skip
// signal aborts silently; any other failure goes to the error hook and
// aborts the dispatch before invocation.
func (m *Manager) fetchArg(ctx context.Context, d *Dispatch, dep Dependency) (any, bool) {
	v, err := m.hooks.GetCallbackArg(ctx, d.Observer.id, dep.TargetID, dep.TargetProperty)
	if err != nil {
		if !errors.Is(err, ErrSkipDispatch) {
			m.hooks.OnCallbackError(d.Observer.id, newObserverError(d.Observer.id, "resolve", err))
		}
		return nil, false
	}
	return v, true
}

// invoke runs the callback through the middleware chain, delegating
// external observers via the SendCallback hook.
func (m *Manager) invoke(ctx context.Context, d *Dispatch, args Args) (Updates, error) {
	next := func(ctx context.Context, d *Dispatch, args Args) (Updates, error) {
		if d.Observer.external {
			return m.hooks.SendCallback(ctx, d.Observer.id, args)
		}
		return d.Observer.Callback(ctx, args)
	}
	for i := len(m.middleware) - 1; i >= 0; i-- {
		next = m.middleware[i](next)
	}
	return next(ctx, d, args)
}

// apply writes the normalized result map through the ApplyUpdate hook, in
// update-dependency order. A failed write is reported and the remaining
// targets are still applied: containment is per write, matching the
// per-observer isolation elsewhere in the engine.
func (m *Manager) apply(ctx context.Context, d *Dispatch, targets map[string]Component, updates Updates) {
	if len(updates) == 0 {
		return
	}
	o := d.Observer
	for _, dep := range o.updates {
		props, ok := updates[dep.TargetID]
		if !ok {
			continue
		}
		value, ok := props[dep.TargetProperty]
		if !ok {
			continue
		}
		err := m.hooks.ApplyUpdate(ctx, o.id, targets[dep.TargetID], dep.TargetID, dep.TargetProperty, value)
		if err != nil {
			m.hooks.OnCallbackError(o.id, newObserverError(o.id, "apply", err))
		}
	}
}

// defaultHooks builds the manager's fallback hook set.
func (m *Manager) defaultHooks() Hooks {
	return Hooks{
		GetComponent: func(id string) (Component, bool) {
			m.compMu.RLock()
			defer m.compMu.RUnlock()
			c, ok := m.components[id]
			return c, ok
		},

		ApplyUpdate: func(ctx context.Context, observerID string, c Component, id, property string, value any) error {
			if c == nil {
				return fmt.Errorf("observer: no component %q to apply %q to", id, property)
			}
			return c.SetProperty(property, value)
		},

		GetCallbackArg: func(ctx context.Context, observerID, id, property string) (any, error) {
			c, ok := m.hooks.GetComponent(id)
			if !ok {
				return nil, ErrSkipDispatch
			}
			return c.GetProperty(property)
		},

		OnCallbackError: func(observerID string, err error) {
			m.logger.Error("observer callback failed",
				"observer", observerID,
				"error", err,
				"stack", string(debug.Stack()),
			)
		},

		SendCallback: func(ctx context.Context, observerID string, args Args) (Updates, error) {
			m.logger.Warn("external dispatch using local placeholder", "observer", observerID)
			o, ok := m.local.Lookup(observerID)
			if !ok {
				o, ok = m.global.Lookup(observerID)
			}
			if !ok {
				return nil, newObserverError(observerID, "delegate", ErrUnknownObserver)
			}
			return o.Callback(ctx, args)
		},
	}
}
