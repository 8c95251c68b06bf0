package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/teakit-dev/teakit/pkg/observer"
)

func quietManager() *observer.Manager {
	return observer.NewManager(
		observer.WithGlobalRegistry(observer.NewRegistry()),
		observer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestObjectInstancesDoNotShareState(t *testing.T) {
	schema := Schema{"value": "initial", "count": 0}

	a := NewObject("a", schema)
	b := NewObject("b", schema)

	if err := a.SetProperty("value", "changed"); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}

	got, err := b.GetProperty("value")
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if got != "initial" {
		t.Errorf("instance b leaked state from a: %v", got)
	}
}

func TestObjectUnknownProperty(t *testing.T) {
	o := NewObject("o", Schema{"known": 1})

	if _, err := o.GetProperty("mystery"); !errors.Is(err, observer.ErrUnknownProperty) {
		t.Errorf("get: err = %v, want ErrUnknownProperty", err)
	}
	if err := o.SetProperty("mystery", 2); !errors.Is(err, observer.ErrUnknownProperty) {
		t.Errorf("set: err = %v, want ErrUnknownProperty", err)
	}
}

func TestObjectFeedsMutationsIntoManager(t *testing.T) {
	m := quietManager()
	ping := NewObject("ping", Schema{"value": "A"}).Bind(m)
	pong := NewObject("pong", Schema{"value": "", "prior": ""}).Bind(m)

	m.When(
		observer.Modified("ping", "value"),
		observer.Select("ping", "value"),
		observer.Update("pong", "value"),
		observer.Update("pong", "prior"),
	).Do(func(_ context.Context, args observer.Args) (any, error) {
		return []any{args[0], args[1]}, nil
	})

	if err := ping.SetProperty("value", "B"); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}

	newVal, _ := pong.GetProperty("value")
	oldVal, _ := pong.GetProperty("prior")
	if newVal != "B" || oldVal != "A" {
		t.Errorf("pong = (value=%v, prior=%v), want (B, A)", newVal, oldVal)
	}
}

func TestObjectUnchangedAssignmentDoesNotDispatch(t *testing.T) {
	m := quietManager()
	ping := NewObject("ping", Schema{"value": "A"}).Bind(m)

	count := 0
	m.When(observer.Modified("ping", "value")).Do(func(_ context.Context, _ observer.Args) (any, error) {
		count++
		return nil, nil
	})

	if err := ping.SetProperty("value", "A"); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	if count != 0 {
		t.Errorf("unchanged assignment dispatched %d times", count)
	}
}

type pingEvent struct{ N int }

func TestObjectAnnouncePublishesEvent(t *testing.T) {
	m := quietManager()
	ping := NewObject("ping", Schema{}).Bind(m)
	sink := NewObject("sink", Schema{"last": ""}).Bind(m)

	m.When(
		observer.Published("ping", pingEvent{}),
		observer.Update("sink", "last"),
	).Do(func(_ context.Context, args observer.Args) (any, error) {
		evt := args[0].(pingEvent)
		return fmt.Sprintf("event %d", evt.N), nil
	})

	if err := ping.Announce(pingEvent{N: 9}); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	got, _ := sink.GetProperty("last")
	if got != "event 9" {
		t.Errorf("sink.last = %v, want %q", got, "event 9")
	}
}
