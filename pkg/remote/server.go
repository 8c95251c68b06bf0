package remote

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teakit-dev/teakit/pkg/observer"
)

// ServerConfig configures the delegation server.
type ServerConfig struct {
	// ReadTimeout bounds each frame read (default: 60s).
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write (default: 10s).
	WriteTimeout time.Duration

	// DispatchTimeout bounds one delegated callback (default: 30s).
	DispatchTimeout time.Duration

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// defaultServerConfig returns the default server configuration.
func defaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		DispatchTimeout: 30 * time.Second,
		Logger:          slog.Default(),
	}
}

// ServerOption configures the delegation server.
type ServerOption func(*ServerConfig)

// WithReadTimeout sets the per-frame read deadline.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(c *ServerConfig) { c.ReadTimeout = d }
}

// WithWriteTimeout sets the per-frame write deadline.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(c *ServerConfig) { c.WriteTimeout = d }
}

// WithDispatchTimeout bounds each delegated callback.
func WithDispatchTimeout(d time.Duration) ServerOption {
	return func(c *ServerConfig) { c.DispatchTimeout = d }
}

// WithServerLogger sets the structured logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(c *ServerConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// Server executes observers from a registry on behalf of websocket peers.
type Server struct {
	registry *observer.Registry
	config   ServerConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a delegation server over the given registry.
func NewServer(registry *observer.Registry, opts ...ServerOption) *Server {
	config := defaultServerConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Server{
		registry: registry,
		config:   config,
		logger:   config.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the HTTP surface: /ws for delegation, /healthz for
// liveness, /metrics for Prometheus.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.serveWS)
	return r
}

// serveWS upgrades the connection and serves delegated dispatches until the
// peer disconnects.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		req, err := decodeRequest(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			continue
		}

		resp := s.handle(r.Context(), req)

		data, err := encodeResponse(resp)
		if err != nil {
			s.logger.Error("frame encode error", "error", err)
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Error("write error", "error", err)
			return
		}
	}
}

// handle executes one delegated dispatch against the registry.
func (s *Server) handle(ctx context.Context, req callbackRequest) callbackResponse {
	resp := callbackResponse{DispatchID: req.DispatchID}

	o, ok := s.registry.Lookup(req.ObserverID)
	if !ok {
		resp.Error = observer.ErrUnknownObserver.Error()
		resp.ErrorKind = errorKindUnknownObserver
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.DispatchTimeout)
	defer cancel()

	updates, err := o.Callback(ctx, observer.Args(req.Args))
	if err != nil {
		if errors.Is(err, observer.ErrSkipDispatch) {
			// Skip travels as an empty success; the caller treats the
			// absence of updates as a no-op.
			return resp
		}
		resp.Error = err.Error()
		resp.ErrorKind = errorKindCallback
		s.logger.Error("delegated callback failed",
			"observer", req.ObserverID,
			"dispatch", req.DispatchID,
			"error", err,
		)
		return resp
	}

	resp.Updates = updates
	return resp
}
