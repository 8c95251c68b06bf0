package router

import (
	"context"
	"fmt"
	"sync"
)

// Params holds extracted path parameters. Catch-all parameters contain the
// joined remainder of the path.
type Params map[string]string

// Get returns a parameter value, or the fallback if absent.
func (p Params) Get(name, fallback string) string {
	if v, ok := p[name]; ok {
		return v
	}
	return fallback
}

// Handler handles a resolved route.
type Handler func(ctx context.Context, path string, params Params) (any, error)

// Common method names. Any string is accepted; these cover the app-internal
// conventions.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodPatch  = "PATCH"
	MethodDelete = "DELETE"
)

// Router is a path router with per-method endpoints and a navigation
// history. Registration happens during setup; resolution is read-only and
// safe for concurrent use.
type Router struct {
	mu   sync.RWMutex
	root *node

	// history is the visited-path stack; pos points at the current entry.
	history []string
	pos     int
}

// New creates an empty router.
func New() *Router {
	return &Router{
		root: newNode(""),
		pos:  -1,
	}
}

// Route registers a handler for a (method, pattern) pair. Registering the
// same pair twice is rejected with ErrDuplicateRoute; unlike observer
// registration, routes must be unambiguous.
func (r *Router) Route(method, pattern string, h Handler) error {
	if h == nil {
		return fmt.Errorf("%w: nil handler for %s %s", ErrInvalidPattern, method, pattern)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	leaf, err := r.root.insert(pattern)
	if err != nil {
		return fmt.Errorf("%w: %s", err, pattern)
	}
	if leaf.endpoints == nil {
		leaf.endpoints = make(map[string]Handler)
	}
	if _, exists := leaf.endpoints[method]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, pattern)
	}
	leaf.endpoints[method] = h
	return nil
}

// Get registers a GET handler.
func (r *Router) Get(pattern string, h Handler) error {
	return r.Route(MethodGet, pattern, h)
}

// Post registers a POST handler.
func (r *Router) Post(pattern string, h Handler) error {
	return r.Route(MethodPost, pattern, h)
}

// Resolve finds the handler and parameters for (method, path). A matching
// path without the method yields ErrMethodNotAllowed.
func (r *Router) Resolve(method, path string) (Handler, Params, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	params := make(Params)
	leaf, ok := r.root.match(splitPath(path), params)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	h, ok := leaf.endpoints[method]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s %s", ErrMethodNotAllowed, method, path)
	}
	return h, params, nil
}

// Visit resolves a GET route, records the path in the history stack
// (truncating any forward entries), and runs the handler.
func (r *Router) Visit(ctx context.Context, path string) (any, error) {
	h, params, err := r.Resolve(MethodGet, path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.history = append(r.history[:r.pos+1], path)
	r.pos = len(r.history) - 1
	r.mu.Unlock()

	return h(ctx, path, params)
}

// Back moves one entry back in the history and re-runs its handler.
func (r *Router) Back(ctx context.Context) (any, error) {
	r.mu.Lock()
	if r.pos <= 0 {
		r.mu.Unlock()
		return nil, ErrNoHistory
	}
	r.pos--
	path := r.history[r.pos]
	r.mu.Unlock()

	h, params, err := r.Resolve(MethodGet, path)
	if err != nil {
		return nil, err
	}
	return h(ctx, path, params)
}

// Forward moves one entry forward in the history and re-runs its handler.
func (r *Router) Forward(ctx context.Context) (any, error) {
	r.mu.Lock()
	if r.pos < 0 || r.pos >= len(r.history)-1 {
		r.mu.Unlock()
		return nil, ErrNoHistory
	}
	r.pos++
	path := r.history[r.pos]
	r.mu.Unlock()

	h, params, err := r.Resolve(MethodGet, path)
	if err != nil {
		return nil, err
	}
	return h(ctx, path, params)
}

// Current returns the current history path, if any.
func (r *Router) Current() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pos < 0 || r.pos >= len(r.history) {
		return "", false
	}
	return r.history[r.pos], true
}
