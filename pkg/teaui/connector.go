// Package teaui binds the observer dispatch engine to a bubbletea program.
//
// Widgets register as components with stable ids; property writes and event
// announcements return tea.Cmds, so dispatches run on the program's own
// scheduler and completion is reported back into Update as a DispatchedMsg.
package teaui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teakit-dev/teakit/pkg/observer"
)

// DispatchedMsg is delivered to the program after the handlers for one
// mutation or event have run. Err is non-nil only for context cancellation;
// observer failures are contained by the engine and reported through its
// error hook.
type DispatchedMsg struct {
	TargetID       string
	TargetProperty string
	Err            error
}

// Connector owns the manager a bubbletea program dispatches through.
type Connector struct {
	manager *observer.Manager
	ctx     context.Context
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithManager supplies a pre-configured manager (custom hooks, middleware).
func WithManager(m *observer.Manager) ConnectorOption {
	return func(c *Connector) {
		if m != nil {
			c.manager = m
		}
	}
}

// WithContext sets the context dispatches run under.
func WithContext(ctx context.Context) ConnectorOption {
	return func(c *Connector) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithLogger is a shortcut for a default manager with the given logger.
func WithLogger(l *slog.Logger) ConnectorOption {
	return func(c *Connector) {
		c.manager = observer.NewManager(observer.WithLogger(l))
	}
}

// NewConnector creates a connector with a default manager.
func NewConnector(opts ...ConnectorOption) *Connector {
	c := &Connector{
		manager: observer.NewManager(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Manager returns the underlying dispatch engine.
func (c *Connector) Manager() *observer.Manager {
	return c.manager
}

// When registers into the connector's instance-local registry.
func (c *Connector) When(deps ...observer.Dependency) *observer.Binding {
	return c.manager.When(deps...)
}

// Register makes a component reachable through the manager's default
// component hooks.
func (c *Connector) Register(comp observer.Component) {
	c.manager.RegisterComponent(comp)
}

// Unregister removes a component. Dispatches targeting it skip silently.
func (c *Connector) Unregister(id string) {
	c.manager.UnregisterComponent(id)
}

// Notify returns a command that runs every handler for a property mutation
// and reports completion as a DispatchedMsg.
func (c *Connector) Notify(id, property string, oldValue, newValue any) tea.Cmd {
	return func() tea.Msg {
		err := c.manager.Notify(c.ctx, id, property, oldValue, newValue)
		return DispatchedMsg{TargetID: id, TargetProperty: property, Err: err}
	}
}

// Publish returns a command that announces an event from a component. The
// event name is derived from the payload type.
func (c *Connector) Publish(id string, event any) tea.Cmd {
	name := observer.EventName(event)
	return func() tea.Msg {
		err := c.manager.Publish(c.ctx, id, event)
		return DispatchedMsg{TargetID: id, TargetProperty: name, Err: err}
	}
}
