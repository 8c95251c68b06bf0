package observer

import (
	"fmt"
	"reflect"
)

// Kind classifies the role a Dependency plays in an Observer.
type Kind uint8

const (
	// KindPublished triggers when the target announces an event.
	KindPublished Kind = iota

	// KindModified triggers when the target property changes value.
	KindModified

	// KindSelect never triggers; it supplies a read-only argument.
	KindSelect

	// KindUpdate never triggers; it receives a value written back after a
	// successful callback.
	KindUpdate
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindPublished:
		return "published"
	case KindModified:
		return "modified"
	case KindSelect:
		return "select"
	case KindUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Identifiable is anything that can stand in for a target id.
// Components, store objects, and teaui wrappers all implement it.
type Identifiable interface {
	ID() string
}

// Dependency identifies a target by id and property (or event name) and the
// role it plays in an Observer. Equality is defined purely by the
// (TargetID, TargetProperty) pair; two dependencies built from an
// id-bearing value and from its raw id string are interchangeable.
type Dependency struct {
	// TargetID is the component id this dependency points at.
	TargetID string

	// TargetProperty is the property name, or for published dependencies
	// the stable event name derived from the event type.
	TargetProperty string

	// Kind is the dependency role.
	Kind Kind
}

// Modified declares a trigger-by-value dependency: the observer fires when
// the target property changes, receiving the new value as an argument.
// The target may be a raw id string or any Identifiable.
func Modified(target any, property string) Dependency {
	return Dependency{TargetID: resolveID(target), TargetProperty: property, Kind: KindModified}
}

// Published declares a trigger-by-event dependency: the observer fires when
// the target announces an event of the given type. The event may be a string
// name or a value whose type names the event (see EventName).
func Published(target any, event any) Dependency {
	return Dependency{TargetID: resolveID(target), TargetProperty: EventName(event), Kind: KindPublished}
}

// Select declares a non-triggering read: the current value of the target
// property is supplied as a read-only argument, but changes to it never
// fire the observer.
func Select(target any, property string) Dependency {
	return Dependency{TargetID: resolveID(target), TargetProperty: property, Kind: KindSelect}
}

// Update declares an output: after a successful callback, the matching
// result value is written to the target property. Updates never appear as
// callback arguments.
func Update(target any, property string) Dependency {
	return Dependency{TargetID: resolveID(target), TargetProperty: property, Kind: KindUpdate}
}

// Key returns the "id@property" form used in canonical observer ids.
func (d Dependency) Key() string {
	return d.TargetID + "@" + d.TargetProperty
}

// Equal reports whether two dependencies point at the same target property.
// Kind is deliberately excluded; identity is the (id, property) pair.
func (d Dependency) Equal(other Dependency) bool {
	return d.TargetID == other.TargetID && d.TargetProperty == other.TargetProperty
}

// resolveID resolves a target to its id eagerly, at declaration time.
// Registration-time misuse panics, matching the router's treatment of
// malformed patterns.
func resolveID(target any) string {
	switch t := target.(type) {
	case string:
		return t
	case Identifiable:
		return t.ID()
	default:
		panic(fmt.Sprintf("observer: target %T has no id; pass a string or an Identifiable", target))
	}
}

// EventName derives the stable event name for a published dependency.
// Strings pass through unchanged; any other value is named by its type,
// with pointer indirection stripped so *ClickEvent and ClickEvent agree.
func EventName(event any) string {
	if s, ok := event.(string); ok {
		return s
	}
	t := reflect.TypeOf(event)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		panic("observer: cannot derive an event name from nil")
	}
	return t.String()
}

// flattenDependencies partitions an unordered bag of dependencies into the
// four role lists. Input order is preserved within each list; the split is
// order-independent across roles.
func flattenDependencies(deps []Dependency) (publications, modifications, selects, updates []Dependency) {
	for _, d := range deps {
		switch d.Kind {
		case KindPublished:
			publications = append(publications, d)
		case KindModified:
			modifications = append(modifications, d)
		case KindSelect:
			selects = append(selects, d)
		case KindUpdate:
			updates = append(updates, d)
		}
	}
	return publications, modifications, selects, updates
}
