package store

import (
	"reflect"
	"sync"
)

// ChangeFunc is invoked with the old and new values after a Value changes.
type ChangeFunc[T any] func(oldValue, newValue T)

// Value is a reactive attribute holder: a current value plus an optional
// change handler. Assignment compares old against new; only a real change
// invokes the handler.
type Value[T any] struct {
	mu       sync.RWMutex
	value    T
	equal    func(T, T) bool
	onChange ChangeFunc[T]

	// async schedules the handler on its own goroutine, fire and forget.
	async bool
}

// NewValue creates a holder with the given initial value.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set assigns a new value. If it differs from the current one and a change
// handler is set, the handler is invoked with (old, new). Async handlers are
// scheduled rather than awaited; their outcome is not propagated.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	oldValue := v.value
	changed := !v.equals(oldValue, value)
	if changed {
		v.value = value
	}
	handler := v.onChange
	async := v.async
	v.mu.Unlock()

	if !changed || handler == nil {
		return
	}
	if async {
		go handler(oldValue, value)
		return
	}
	handler(oldValue, value)
}

// OnChange sets the change handler, invoked inline on the mutating
// goroutine.
func (v *Value[T]) OnChange(fn ChangeFunc[T]) *Value[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = fn
	v.async = false
	return v
}

// OnChangeAsync sets a change handler that is scheduled on its own
// goroutine instead of running inline.
func (v *Value[T]) OnChangeAsync(fn ChangeFunc[T]) *Value[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = fn
	v.async = true
	return v
}

// WithEquals configures a custom equality function, for types where
// reflect.DeepEqual is too expensive or has the wrong semantics.
func (v *Value[T]) WithEquals(fn func(T, T) bool) *Value[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.equal = fn
	return v
}

// equals checks two values using the configured equality function.
func (v *Value[T]) equals(a, b T) bool {
	if v.equal != nil {
		return v.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common comparable types and falls back to
// reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
