package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teakit-dev/teakit/pkg/observer"
	"github.com/teakit-dev/teakit/pkg/teaui"
)

// ResetPressed is published when the user resets the counter.
type ResetPressed struct {
	From int
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	statusStyle = lipgloss.NewStyle().Faint(true)
)

// app is the bubbletea model. It owns no cross-widget logic; the counter,
// mirror, and log are connected exclusively through observers.
type app struct {
	connector *teaui.Connector
	counter   *teaui.Widget
	mirror    *teaui.Widget
	eventLog  *teaui.Widget

	lastDispatch string
}

// newApp builds the widgets and declares the observer wiring.
func newApp(mgr *observer.Manager) *app {
	c := teaui.NewConnector(teaui.WithManager(mgr))

	a := &app{
		connector: c,
		counter:   teaui.NewWidget(c, "counter", map[string]any{"count": 0}),
		mirror:    teaui.NewWidget(c, "mirror", map[string]any{"text": "0"}),
		eventLog:  teaui.NewWidget(c, "log", map[string]any{"lines": []any{}}),
	}

	// Mirror follows the counter.
	c.When(
		observer.Modified("counter", "count"),
		observer.Update("mirror", "text"),
	).Do(func(_ context.Context, args observer.Args) (any, error) {
		return fmt.Sprintf("%v", args[0]), nil
	})

	// Reset events append to the log, reading the existing lines without
	// triggering on them.
	c.When(
		observer.Published("counter", ResetPressed{}),
		observer.Select("log", "lines"),
		observer.Update("log", "lines"),
	).Do(func(_ context.Context, args observer.Args) (any, error) {
		evt, _ := args[0].(ResetPressed)
		lines, _ := args[1].([]any)
		return append(lines, fmt.Sprintf("reset from %d", evt.From)), nil
	})

	// Reset events also zero the counter itself.
	c.When(
		observer.Published("counter", ResetPressed{}),
		observer.Update("counter", "count"),
	).Do(func(_ context.Context, _ observer.Args) (any, error) {
		return 0, nil
	})

	return a
}

// Init implements tea.Model.
func (a *app) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a *app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "+", "up", "k":
			n, _ := a.counter.Get("count").(int)
			return a, a.counter.Set("count", n+1)
		case "-", "down", "j":
			n, _ := a.counter.Get("count").(int)
			return a, a.counter.Set("count", n-1)
		case "r":
			n, _ := a.counter.Get("count").(int)
			return a, a.counter.Announce(ResetPressed{From: n})
		}

	case teaui.DispatchedMsg:
		a.lastDispatch = msg.TargetID + "@" + msg.TargetProperty
		// The counter reset above mutates counter.count through an
		// observer output, which does not re-dispatch on its own; refresh
		// the mirror by notifying explicitly after event dispatches.
		if msg.TargetProperty == observer.EventName(ResetPressed{}) {
			return a, a.connector.Notify("counter", "count", nil, a.counter.Get("count"))
		}
	}
	return a, nil
}

// View implements tea.Model.
func (a *app) View() string {
	count := a.counter.Get("count")
	text := a.mirror.Get("text")
	lines, _ := a.eventLog.Get("lines").([]any)

	logView := ""
	for i := len(lines) - 1; i >= 0 && i >= len(lines)-5; i-- {
		logView += fmt.Sprintf("%v\n", lines[i])
	}
	if logView == "" {
		logView = labelStyle.Render("(no events yet)") + "\n"
	}

	body := fmt.Sprintf("%s\n\n%s %s\n%s %s\n\n%s\n%s",
		titleStyle.Render("teakit observer demo"),
		labelStyle.Render("counter:"), valueStyle.Render(fmt.Sprintf("%v", count)),
		labelStyle.Render("mirror: "), valueStyle.Render(fmt.Sprintf("%v", text)),
		labelStyle.Render("reset log:"),
		logView,
	)

	status := statusStyle.Render(fmt.Sprintf("+/- adjust · r reset · q quit · last dispatch: %s", a.lastDispatch))
	return boxStyle.Render(body) + "\n" + status + "\n"
}
