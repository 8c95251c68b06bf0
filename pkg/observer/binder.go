package observer

import "sync"

// Binder is the explicit late-binding table for method-style observers.
//
// There is no weak-reference primitive in Go, so an observer never holds its
// bound instance directly. Instead the declaration names an instance key,
// the owning instance registers itself under that key when constructed, and
// deregisters on teardown. A dispatch that resolves a missing key fails
// closed: the observer skips silently instead of dereferencing a dead
// instance.
type Binder struct {
	mu        sync.RWMutex
	instances map[string]any
}

// newBinder creates an empty binder table.
func newBinder() *Binder {
	return &Binder{instances: make(map[string]any)}
}

// Attach registers an instance under the given key. Binding happens once,
// at instance construction; attaching a new instance under an existing key
// replaces the old binding.
func (b *Binder) Attach(key string, instance any) {
	if key == "" || instance == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.instances[key] = instance
}

// Detach removes an instance binding. Observers bound to the key skip from
// then on.
func (b *Binder) Detach(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.instances, key)
}

// Resolve returns the instance bound under key, if any.
func (b *Binder) Resolve(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	instance, ok := b.instances[key]
	return instance, ok
}
