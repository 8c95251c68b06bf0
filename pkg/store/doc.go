// Package store provides minimal observable value containers usable without
// any UI tree: a typed Value holder with change notification, and an Object
// whose named attributes feed mutations into an observer.Manager. Objects
// double as the natural test host for the dispatch engine.
package store
