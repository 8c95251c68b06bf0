// Package router implements the application path router: a radix tree over
// URL-style paths with static segments, ":param" parameters, and "*rest"
// catch-alls, a per-method endpoint table, and a browser-style history
// stack for in-app navigation.
//
// Unlike the observer registry, which lets duplicate registrations coexist,
// the router rejects a second registration of the same (method, path) pair.
package router
