package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teakit-dev/teakit/pkg/observer"
)

// startServer runs a delegation server over the registry and returns a
// connected client.
func startServer(t *testing.T, reg *observer.Registry) *Client {
	t.Helper()

	srv := httptest.NewServer(NewServer(reg).Handler())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	client, err := Dial(context.Background(), wsURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestSendCallbackRoundTrip(t *testing.T) {
	reg := observer.NewRegistry()
	obs := reg.When(
		observer.Modified("ping", "value"),
		observer.Update("pong", "value"),
	).Do(func(_ context.Context, args observer.Args) (any, error) {
		return fmt.Sprintf("remote saw %v", args[0]), nil
	})

	client := startServer(t, reg)

	updates, err := client.SendCallback(context.Background(), obs[0].ID(), observer.Args{"B"})
	require.NoError(t, err)
	assert.Equal(t, "remote saw B", updates["pong"]["value"])
}

func TestSendCallbackUnknownObserver(t *testing.T) {
	client := startServer(t, observer.NewRegistry())

	_, err := client.SendCallback(context.Background(), "nope@x->", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, observer.ErrUnknownObserver), "err = %v", err)
}

func TestSendCallbackCallbackError(t *testing.T) {
	reg := observer.NewRegistry()
	obs := reg.When(
		observer.Modified("ping", "value"),
		observer.Update("pong", "value"),
	).Do(func(_ context.Context, _ observer.Args) (any, error) {
		return nil, errors.New("deliberate failure")
	})

	client := startServer(t, reg)

	_, err := client.SendCallback(context.Background(), obs[0].ID(), observer.Args{"B"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberate failure")
	assert.False(t, errors.Is(err, observer.ErrUnknownObserver))
}

func TestSendCallbackSkipTravelsAsEmptySuccess(t *testing.T) {
	reg := observer.NewRegistry()
	obs := reg.When(
		observer.Modified("ping", "value"),
		observer.Update("pong", "value"),
	).Do(func(_ context.Context, _ observer.Args) (any, error) {
		return nil, observer.ErrSkipDispatch
	})

	client := startServer(t, reg)

	updates, err := client.SendCallback(context.Background(), obs[0].ID(), observer.Args{"B"})
	require.NoError(t, err)
	assert.Nil(t, updates)
}

func TestSendCallbackPluggedIntoManager(t *testing.T) {
	// Remote side: the registry the peer executes against.
	remoteReg := observer.NewRegistry()
	remoteObs := remoteReg.When(
		observer.Modified("ping", "value"),
		observer.Update("pong", "value"),
	).Do(func(_ context.Context, args observer.Args) (any, error) {
		return fmt.Sprintf("delegated %v", args[0]), nil
	})

	client := startServer(t, remoteReg)

	// Local side: an external observer with the same declaration, executed
	// through the client's SendCallback hook.
	m := observer.NewManager(
		observer.WithGlobalRegistry(observer.NewRegistry()),
		observer.WithHooks(observer.Hooks{SendCallback: client.SendCallback}),
	)
	pong := &propBag{id: "pong", props: map[string]any{"value": ""}}
	m.RegisterComponent(pong)
	local := m.When(
		observer.Modified("ping", "value"),
		observer.Update("pong", "value"),
	).External().Do(func(_ context.Context, _ observer.Args) (any, error) {
		t.Fatal("external observer must not run locally")
		return nil, nil
	})
	require.Equal(t, remoteObs[0].ID(), local[0].ID(), "canonical ids must agree across peers")

	require.NoError(t, m.Notify(context.Background(), "ping", "value", "A", "B"))
	assert.Equal(t, "delegated B", pong.props["value"])
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := httptest.NewServer(NewServer(observer.NewRegistry()).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

// propBag is a minimal observer.Component for the manager integration test.
type propBag struct {
	id    string
	props map[string]any
}

func (p *propBag) ID() string { return p.id }

func (p *propBag) GetProperty(name string) (any, error) {
	v, ok := p.props[name]
	if !ok {
		return nil, observer.ErrUnknownProperty
	}
	return v, nil
}

func (p *propBag) SetProperty(name string, value any) error {
	p.props[name] = value
	return nil
}
