package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/teakit-dev/teakit/pkg/observer"
)

// ClientConfig configures the delegation client.
type ClientConfig struct {
	// HandshakeTimeout bounds the websocket dial (default: 10s).
	HandshakeTimeout time.Duration

	// CallTimeout bounds one request/response round trip (default: 30s).
	CallTimeout time.Duration
}

// defaultClientConfig returns the default client configuration.
func defaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		CallTimeout:      30 * time.Second,
	}
}

// ClientOption configures the delegation client.
type ClientOption func(*ClientConfig)

// WithHandshakeTimeout sets the dial deadline.
func WithHandshakeTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.HandshakeTimeout = d }
}

// WithCallTimeout bounds each delegated round trip.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.CallTimeout = d }
}

// Client delegates external observers to a remote peer. Its SendCallback
// method satisfies the observer.Hooks seam:
//
//	client, _ := remote.Dial(ctx, "ws://peer/ws")
//	mgr := observer.NewManager(observer.WithHooks(observer.Hooks{
//	    SendCallback: client.SendCallback,
//	}))
type Client struct {
	config ClientConfig

	// mu serializes round trips; the protocol allows one in flight.
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to a delegation server.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	config := defaultClientConfig()
	for _, opt := range opts {
		opt(&config)
	}

	dialer := websocket.Dialer{HandshakeTimeout: config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: dial %s: %w", url, err)
	}
	return &Client{config: config, conn: conn}, nil
}

// SendCallback delegates one dispatch: it sends the canonical observer id
// and positional arguments, and returns the peer's normalized update map.
// An unknown id on the peer surfaces as observer.ErrUnknownObserver.
func (c *Client) SendCallback(ctx context.Context, observerID string, args observer.Args) (observer.Updates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := callbackRequest{
		DispatchID: ulid.Make().String(),
		ObserverID: observerID,
		Args:       args,
	}
	data, err := encodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("remote: encode request: %w", err)
	}

	deadline := time.Now().Add(c.config.CallTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, fmt.Errorf("remote: write: %w", err)
	}

	// Read until the correlated response arrives; stale frames from a
	// previous timed-out call are dropped.
	for {
		_ = c.conn.SetReadDeadline(deadline)
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("remote: read: %w", err)
		}
		resp, err := decodeResponse(msg)
		if err != nil {
			return nil, fmt.Errorf("remote: decode response: %w", err)
		}
		if resp.DispatchID != req.DispatchID {
			continue
		}

		if resp.Error != "" {
			if resp.ErrorKind == errorKindUnknownObserver {
				return nil, fmt.Errorf("remote: %s: %w", observerID, observer.ErrUnknownObserver)
			}
			return nil, fmt.Errorf("remote: delegated callback: %s", resp.Error)
		}
		if resp.Updates == nil {
			return nil, nil
		}
		return observer.Updates(resp.Updates), nil
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
