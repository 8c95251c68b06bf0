package observer

import (
	"context"
	"testing"
)

func noop(_ context.Context, _ Args) (any, error) { return nil, nil }

func TestRegisterGroupsTriggersByDefault(t *testing.T) {
	reg := NewRegistry()
	obs := reg.When(
		Modified("a", "x"),
		Modified("b", "y"),
		Published("c", "Evt"),
		Published("d", "Evt"),
		Update("out", "v"),
	).Do(noop)

	if len(obs) != 1 {
		t.Fatalf("expected one observer for grouped triggers, got %d", len(obs))
	}
	if len(obs[0].Publications()) != 2 || len(obs[0].Modifications()) != 2 {
		t.Errorf("grouped observer should own all triggers: %+v", obs[0])
	}
}

func TestRegisterSplitCartesianProduct(t *testing.T) {
	reg := NewRegistry()
	obs := reg.When(
		Modified("a", "x"),
		Modified("b", "y"),
		Published("c", "Evt"),
		Published("d", "Evt"),
		Select("ctx", "s"),
		Update("out", "v"),
	).SplitPublished().SplitModified().Do(noop)

	// 2 publication groups x 2 modification groups.
	if len(obs) != 4 {
		t.Fatalf("expected 4 observers from the cartesian product, got %d", len(obs))
	}
	for _, o := range obs {
		if len(o.Publications()) != 1 || len(o.Modifications()) != 1 {
			t.Errorf("split observer should own one trigger per class: %s", o.ID())
		}
		if len(o.Selects()) != 1 || len(o.Updates()) != 1 {
			t.Errorf("selects and updates must be shared, not split: %s", o.ID())
		}
	}
}

func TestRegisterSplitOneClassOnly(t *testing.T) {
	reg := NewRegistry()
	obs := reg.When(
		Modified("a", "x"),
		Modified("b", "y"),
		Update("out", "v"),
	).SplitModified().Do(noop)

	if len(obs) != 2 {
		t.Fatalf("expected 2 observers, got %d", len(obs))
	}
}

func TestRegistryIndexesEveryTrigger(t *testing.T) {
	reg := NewRegistry()
	reg.When(
		Modified("a", "x"),
		Published("b", "Evt"),
		Update("out", "v"),
	).Do(noop)

	if got := reg.ObserversFor("a", "x"); len(got) != 1 {
		t.Errorf("ObserversFor(a, x) = %d entries", len(got))
	}
	if got := reg.ObserversFor("b", "Evt"); len(got) != 1 {
		t.Errorf("ObserversFor(b, Evt) = %d entries", len(got))
	}
	if got := reg.ObserversFor("out", "v"); got != nil {
		t.Error("update dependencies must not be indexed as triggers")
	}
}

func TestRegistryLookupByCanonicalID(t *testing.T) {
	reg := NewRegistry()
	obs := reg.When(Modified("a", "x"), Update("out", "v")).Do(noop)

	found, ok := reg.Lookup(obs[0].ID())
	if !ok || found != obs[0] {
		t.Errorf("Lookup(%q) = %v, %v", obs[0].ID(), found, ok)
	}
	if _, ok := reg.Lookup("nope->"); ok {
		t.Error("unknown canonical id must not resolve")
	}
}

func TestDuplicateRegistrationsCoexist(t *testing.T) {
	reg := NewRegistry()
	reg.When(Modified("a", "x"), Update("out", "v")).Do(noop)
	reg.When(Modified("a", "x"), Update("out", "v")).Do(noop)

	// Nothing rejects duplicates; they are independent list entries.
	if got := reg.ObserversFor("a", "x"); len(got) != 2 {
		t.Errorf("duplicate registrations should coexist, got %d entries", len(got))
	}
}

func TestSelectsAndUpdatesOnlyObserverNeverFires(t *testing.T) {
	reg := NewRegistry()
	obs := reg.When(Select("ctx", "s"), Update("out", "v")).Do(noop)

	if len(obs) != 1 {
		t.Fatalf("expected exactly one observer, got %d", len(obs))
	}
	if got := reg.ObserversFor("ctx", "s"); got != nil {
		t.Error("selects must not be indexed as triggers")
	}
	if _, ok := reg.Lookup(obs[0].ID()); !ok {
		t.Error("trigger-less observer must still be reachable by canonical id")
	}
}

func TestGenerateHandlersGlobalBeforeLocal(t *testing.T) {
	global := NewRegistry()
	m := NewManager(WithGlobalRegistry(global))

	var order []string
	global.When(Modified("dual", "value")).Do(func(_ context.Context, _ Args) (any, error) {
		order = append(order, "global")
		return nil, nil
	})
	m.When(Modified("dual", "value")).Do(func(_ context.Context, _ Args) (any, error) {
		order = append(order, "local")
		return nil, nil
	})

	handlers := m.GenerateHandlers("dual", "value")
	if len(handlers) != 2 {
		t.Fatalf("expected handlers from both registries, got %d", len(handlers))
	}
	for _, h := range handlers {
		if err := h(context.Background(), "old", "new"); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}
	if len(order) != 2 || order[0] != "global" || order[1] != "local" {
		t.Errorf("execution order = %v, want [global local]", order)
	}
}
