// Package middleware provides dispatch middleware for the observer engine:
// Prometheus metrics and OpenTelemetry tracing. Middleware wraps callback
// invocation only; argument resolution and update application stay in the
// engine core.
package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/teakit-dev/teakit/pkg/observer"
)

// MetricsConfig configures the Prometheus dispatch middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "teakit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "observer").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus dispatch middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "teakit",
		Subsystem:   "observer",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for the dispatch engine.
type metrics struct {
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	callbackErrors   *prometheus.CounterVec
}

// globalMetrics is the singleton metrics instance, created on the first
// Prometheus() call so repeated construction does not re-register.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of observer dispatches by status",
			ConstLabels: config.ConstLabels,
		}, []string{"target", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Observer callback duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"target"}),

		callbackErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "callback_errors_total",
			Help:        "Total number of observer callback errors",
			ConstLabels: config.ConstLabels,
		}, []string{"target"}),
	}
}

// Prometheus creates dispatch middleware that collects Prometheus metrics.
//
// Metrics collected:
//   - teakit_observer_dispatches_total: Counter of dispatches by firing
//     target and status (ok, skipped, error)
//   - teakit_observer_dispatch_duration_seconds: Histogram of callback
//     duration by firing target
//   - teakit_observer_callback_errors_total: Counter of callback errors
//
// Example:
//
//	mgr := observer.NewManager()
//	mgr.Use(middleware.Prometheus(
//	    middleware.WithNamespace("myapp"),
//	))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) observer.DispatchMiddleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Initialize metrics once
	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(next observer.DispatchFunc) observer.DispatchFunc {
		return func(ctx context.Context, d *observer.Dispatch, args observer.Args) (observer.Updates, error) {
			target := d.TargetID + "@" + d.TargetProperty
			start := time.Now()

			updates, err := next(ctx, d, args)

			m.dispatchDuration.WithLabelValues(target).Observe(time.Since(start).Seconds())
			switch {
			case err == nil:
				m.dispatchesTotal.WithLabelValues(target, "ok").Inc()
			case errors.Is(err, observer.ErrSkipDispatch):
				m.dispatchesTotal.WithLabelValues(target, "skipped").Inc()
			default:
				m.dispatchesTotal.WithLabelValues(target, "error").Inc()
				m.callbackErrors.WithLabelValues(target).Inc()
			}

			return updates, err
		}
	}
}
