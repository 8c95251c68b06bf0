package teakit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/teakit-dev/teakit/pkg/observer"
)

type rootComponent struct {
	id    string
	props map[string]any
}

func (c *rootComponent) ID() string { return c.id }

func (c *rootComponent) GetProperty(name string) (any, error) {
	v, ok := c.props[name]
	if !ok {
		return nil, observer.ErrUnknownProperty
	}
	return v, nil
}

func (c *rootComponent) SetProperty(name string, value any) error {
	c.props[name] = value
	return nil
}

func TestPackageLevelWhenReachesEveryManager(t *testing.T) {
	// Unique ids keep this registration out of other tests' way; the
	// package-wide registry is process state.
	obs := When(
		Modified("teakit_root_src", "value"),
		Update("teakit_root_dst", "value"),
	).Do(func(_ context.Context, args Args) (any, error) {
		return fmt.Sprintf("via default registry: %v", args[0]), nil
	})
	if len(obs) != 1 {
		t.Fatalf("registered %d observers, want 1", len(obs))
	}

	m := NewManager(observer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	dst := &rootComponent{id: "teakit_root_dst", props: map[string]any{"value": ""}}
	m.RegisterComponent(dst)

	if err := m.Notify(context.Background(), "teakit_root_src", "value", 1, 2); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got := dst.props["value"]; got != "via default registry: 2" {
		t.Errorf("dst.value = %v", got)
	}
}

func TestCanonicalIDVisibleThroughAlias(t *testing.T) {
	obs := When(
		Modified("teakit_alias_src", "value"),
		Update("teakit_alias_dst", "value"),
	).Do(func(_ context.Context, _ Args) (any, error) { return NoUpdate, nil })

	want := "teakit_alias_src@value->teakit_alias_dst@value"
	if obs[0].ID() != want {
		t.Errorf("ID() = %q, want %q", obs[0].ID(), want)
	}
}
