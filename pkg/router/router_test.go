package router

import (
	"context"
	"errors"
	"testing"
)

func echoHandler(_ context.Context, path string, _ Params) (any, error) {
	return path, nil
}

func TestRouteAndResolve(t *testing.T) {
	r := New()
	if err := r.Get("/objects/:id", echoHandler); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := r.Get("/objects/:id/children", echoHandler); err != nil {
		t.Fatalf("Get: %v", err)
	}

	_, params, err := r.Resolve(MethodGet, "/objects/42")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if params.Get("id", "") != "42" {
		t.Errorf("id param = %q, want 42", params["id"])
	}

	_, params, err = r.Resolve(MethodGet, "/objects/7/children")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if params.Get("id", "") != "7" {
		t.Errorf("id param = %q, want 7", params["id"])
	}
}

func TestDuplicateRouteRejected(t *testing.T) {
	r := New()
	if err := r.Get("/objects/:id", echoHandler); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := r.Get("/objects/:id", echoHandler); !errors.Is(err, ErrDuplicateRoute) {
		t.Errorf("second registration: err = %v, want ErrDuplicateRoute", err)
	}
	// Same path, different method: allowed.
	if err := r.Post("/objects/:id", echoHandler); err != nil {
		t.Errorf("different method: %v", err)
	}
}

func TestResolveErrors(t *testing.T) {
	r := New()
	if err := r.Get("/known", echoHandler); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if _, _, err := r.Resolve(MethodGet, "/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing path: err = %v, want ErrNotFound", err)
	}
	if _, _, err := r.Resolve(MethodPost, "/known"); !errors.Is(err, ErrMethodNotAllowed) {
		t.Errorf("wrong method: err = %v, want ErrMethodNotAllowed", err)
	}
}

func TestCatchAllRoute(t *testing.T) {
	r := New()
	if err := r.Get("/files/*rest", echoHandler); err != nil {
		t.Fatalf("Get: %v", err)
	}

	_, params, err := r.Resolve(MethodGet, "/files/a/b/c.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if params["rest"] != "a/b/c.txt" {
		t.Errorf("rest = %q, want joined remainder", params["rest"])
	}
}

func TestStaticBeatsParam(t *testing.T) {
	r := New()
	staticHit := false
	paramHit := false
	_ = r.Get("/objects/special", func(_ context.Context, _ string, _ Params) (any, error) {
		staticHit = true
		return nil, nil
	})
	_ = r.Get("/objects/:id", func(_ context.Context, _ string, _ Params) (any, error) {
		paramHit = true
		return nil, nil
	})

	h, _, err := r.Resolve(MethodGet, "/objects/special")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := h(context.Background(), "/objects/special", nil); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !staticHit || paramHit {
		t.Errorf("static=%v param=%v, want static route to win", staticHit, paramHit)
	}
}

func TestInvalidPattern(t *testing.T) {
	r := New()
	if err := r.Get("/bad/:", echoHandler); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("bare param: err = %v, want ErrInvalidPattern", err)
	}
	if err := r.Get("/bad/*", echoHandler); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("bare catch-all: err = %v, want ErrInvalidPattern", err)
	}
	if err := r.Route(MethodGet, "/nil", nil); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("nil handler: err = %v, want ErrInvalidPattern", err)
	}
}

func TestHistoryNavigation(t *testing.T) {
	r := New()
	var visits []string
	record := func(_ context.Context, path string, _ Params) (any, error) {
		visits = append(visits, path)
		return path, nil
	}
	_ = r.Get("/a", record)
	_ = r.Get("/b", record)
	_ = r.Get("/c", record)

	ctx := context.Background()
	for _, p := range []string{"/a", "/b", "/c"} {
		if _, err := r.Visit(ctx, p); err != nil {
			t.Fatalf("Visit %s: %v", p, err)
		}
	}

	if _, err := r.Back(ctx); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if cur, _ := r.Current(); cur != "/b" {
		t.Errorf("Current() = %q, want /b", cur)
	}

	if _, err := r.Forward(ctx); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if cur, _ := r.Current(); cur != "/c" {
		t.Errorf("Current() = %q, want /c", cur)
	}
	if _, err := r.Forward(ctx); !errors.Is(err, ErrNoHistory) {
		t.Errorf("Forward at end: err = %v, want ErrNoHistory", err)
	}

	// Going back then visiting truncates the forward stack.
	if _, err := r.Back(ctx); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if _, err := r.Visit(ctx, "/a"); err != nil {
		t.Fatalf("Visit: %v", err)
	}
	if _, err := r.Forward(ctx); !errors.Is(err, ErrNoHistory) {
		t.Errorf("Forward after truncation: err = %v, want ErrNoHistory", err)
	}
}

func TestVisitUnknownPath(t *testing.T) {
	r := New()
	if _, err := r.Visit(context.Background(), "/nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, ok := r.Current(); ok {
		t.Error("failed visit must not enter history")
	}
}
