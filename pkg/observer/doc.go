// Package observer implements the reactive dependency-dispatch engine.
//
// An Observer is a declared rule of the form "when property X of component A
// changes (or component A publishes an event), run this callback with the
// new value plus any contextual reads, and write the results back to
// property Y of component B". Observers are registered into a Registry,
// indexed by their trigger targets, and executed by a Manager that resolves
// argument values, invokes the callback, and applies the returned updates
// through pluggable host hooks.
//
// The engine itself knows nothing about widgets or rendering. Hosts supply
// component lookup, property access, and error reporting through Hooks;
// the default hooks work against any Component implementation, including
// the standalone containers in pkg/store.
package observer
