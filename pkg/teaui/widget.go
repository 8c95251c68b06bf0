package teaui

import (
	"reflect"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/teakit-dev/teakit/pkg/observer"
)

// Widget is an addressable property bag for bubbletea models. It implements
// observer.Component so observers can trigger on and write back to widget
// properties; Set returns a tea.Cmd so mutations dispatch on the program's
// scheduler rather than inside Update.
type Widget struct {
	id        string
	connector *Connector

	mu    sync.RWMutex
	props map[string]any
}

var _ observer.Component = (*Widget)(nil)

// NewWidget creates a widget and registers it with the connector. An empty
// id gets a generated UUID.
func NewWidget(c *Connector, id string, initial map[string]any) *Widget {
	if id == "" {
		id = uuid.NewString()
	}
	props := make(map[string]any, len(initial))
	for k, v := range initial {
		props[k] = v
	}
	w := &Widget{id: id, connector: c, props: props}
	if c != nil {
		c.Register(w)
	}
	return w
}

// ID returns the widget id.
func (w *Widget) ID() string {
	return w.id
}

// GetProperty returns the current value of a named property.
func (w *Widget) GetProperty(name string) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v, ok := w.props[name]
	if !ok {
		return nil, observer.ErrUnknownProperty
	}
	return v, nil
}

// SetProperty assigns a property without dispatching. The engine uses it to
// apply observer outputs; program code normally goes through Set.
func (w *Widget) SetProperty(name string, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.props[name] = value
	return nil
}

// Get returns a property value, or nil for unknown names.
func (w *Widget) Get(name string) any {
	v, _ := w.GetProperty(name)
	return v
}

// Set assigns a property and returns a command that dispatches the change.
// An unchanged value returns nil, so callers can hand the result straight
// to tea.Batch.
func (w *Widget) Set(name string, value any) tea.Cmd {
	w.mu.Lock()
	oldValue, existed := w.props[name]
	w.props[name] = value
	w.mu.Unlock()

	if existed && reflect.DeepEqual(oldValue, value) {
		return nil
	}
	if w.connector == nil {
		return nil
	}
	return w.connector.Notify(w.id, name, oldValue, value)
}

// Announce returns a command that publishes an event from this widget.
func (w *Widget) Announce(event any) tea.Cmd {
	if w.connector == nil {
		return nil
	}
	return w.connector.Publish(w.id, event)
}
