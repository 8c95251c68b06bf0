package observer

import (
	"sync"
)

// Registry owns the two index maps of the dispatch engine: (target id,
// property) -> observers that must run, built from every trigger dependency,
// and canonical id -> observer for direct lookup and delegation. It also
// owns the binder table for late method binding.
//
// Indexes are populated during registration (typically package init or
// instance construction) and are effectively read-only during dispatch.
type Registry struct {
	mu       sync.RWMutex
	byTarget map[string]map[string][]*Observer
	byID     map[string]*Observer
	binder   *Binder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byTarget: make(map[string]map[string][]*Observer),
		byID:     make(map[string]*Observer),
		binder:   newBinder(),
	}
}

// defaultRegistry is the process-wide registry behind the package-level
// When. It is constructed once and handed to every Manager as its default
// fallback; managers can be given a different registry explicitly.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// When registers into the process-wide registry, making the observer
// visible to every manager that uses it as its global fallback.
func When(deps ...Dependency) *Binding {
	return defaultRegistry.When(deps...)
}

// When starts a registration against this registry. The dependency bag is
// unordered; it is partitioned by role when the callback is supplied.
func (r *Registry) When(deps ...Dependency) *Binding {
	return &Binding{registry: r, deps: deps}
}

// Attach registers an instance in the binder table, completing the late
// binding of every observer declared with BoundTo(key).
func (r *Registry) Attach(key string, instance any) {
	r.binder.Attach(key, instance)
}

// Detach removes an instance from the binder table on teardown. Observers
// bound to the key fail closed afterward.
func (r *Registry) Detach(key string) {
	r.binder.Detach(key)
}

// Lookup returns the observer registered under a canonical id.
func (r *Registry) Lookup(id string) (*Observer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	return o, ok
}

// ObserversFor returns the observers triggered by (id, property), in
// registration order. The returned slice is a copy.
func (r *Registry) ObserversFor(id, property string) []*Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	props, ok := r.byTarget[id]
	if !ok {
		return nil
	}
	obs := props[property]
	if len(obs) == 0 {
		return nil
	}
	out := make([]*Observer, len(obs))
	copy(out, obs)
	return out
}

// insert indexes an observer under its canonical id and every trigger
// dependency. Duplicate registrations on an identical trigger/update set
// coexist as independent list entries; the id index keeps the most recent.
func (r *Registry) insert(o *Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[o.id] = o
	for _, dep := range o.triggers() {
		props, ok := r.byTarget[dep.TargetID]
		if !ok {
			props = make(map[string][]*Observer)
			r.byTarget[dep.TargetID] = props
		}
		props[dep.TargetProperty] = append(props[dep.TargetProperty], o)
	}
}

// Binding accumulates registration options before the callback is supplied.
// Registration is a side effect; Do and DoBound return the generated
// observers for inspection but callers usually discard them.
type Binding struct {
	registry *Registry
	deps     []Dependency

	splitPublished bool
	splitModified  bool
	external       bool
	instanceKey    string
}

// SplitPublished creates one observer per publication trigger instead of a
// single observer for the union.
func (b *Binding) SplitPublished() *Binding {
	b.splitPublished = true
	return b
}

// SplitModified creates one observer per value trigger instead of a single
// observer for the union.
func (b *Binding) SplitModified() *Binding {
	b.splitModified = true
	return b
}

// External marks the generated observers for delegation through the
// SendCallback hook instead of local execution.
func (b *Binding) External() *Binding {
	b.external = true
	return b
}

// BoundTo names the binder key the generated observers resolve their
// instance from. Use with DoBound for method-style callbacks declared
// before the owning instance exists.
func (b *Binding) BoundTo(key string) *Binding {
	b.instanceKey = key
	return b
}

// Do registers fn and returns the generated observers.
func (b *Binding) Do(fn Callback) []*Observer {
	return b.register(fn, nil)
}

// DoBound registers a method-style callback. The instance is resolved from
// the registry's binder table at dispatch time using the BoundTo key.
func (b *Binding) DoBound(fn BoundCallback) []*Observer {
	return b.register(nil, fn)
}

// register flattens the dependency bag, builds the cartesian product of
// publication and modification groups, and indexes one observer per pair.
// Non-split groups collapse to a single shared list; an absent trigger class
// contributes a single empty group, so "selects+updates only" still yields
// exactly one (never-firing) observer.
func (b *Binding) register(fn Callback, boundFn BoundCallback) []*Observer {
	publications, modifications, selects, updates := flattenDependencies(b.deps)

	pubGroups := triggerGroups(publications, b.splitPublished)
	modGroups := triggerGroups(modifications, b.splitModified)

	var observers []*Observer
	for _, pubs := range pubGroups {
		for _, mods := range modGroups {
			o := &Observer{
				publications:  pubs,
				modifications: mods,
				selects:       selects,
				updates:       updates,
				fn:            fn,
				boundFn:       boundFn,
				instanceKey:   b.instanceKey,
				binder:        b.registry.binder,
				external:      b.external,
			}
			o.id = canonicalID(o.triggers(), o.updates)
			b.registry.insert(o)
			observers = append(observers, o)
		}
	}
	return observers
}

// triggerGroups returns the trigger subsets the cartesian product runs over:
// one group per dependency when split, one shared group otherwise, and a
// single empty group when the class is absent.
func triggerGroups(deps []Dependency, split bool) [][]Dependency {
	if len(deps) == 0 {
		return [][]Dependency{nil}
	}
	if !split {
		return [][]Dependency{deps}
	}
	groups := make([][]Dependency, len(deps))
	for i, d := range deps {
		groups[i] = []Dependency{d}
	}
	return groups
}
