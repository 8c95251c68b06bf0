package middleware

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teakit-dev/teakit/pkg/observer"
)

// Default tracer name for teakit applications.
const defaultTracerName = "teakit"

// OTelConfig configures the OpenTelemetry dispatch middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "teakit").
	TracerName string

	// Filter determines which dispatches to trace.
	// Return true to trace the dispatch, false to skip.
	// If nil, all dispatches are traced.
	Filter func(d *observer.Dispatch) bool

	// AttributeExtractor extracts custom attributes per dispatch.
	AttributeExtractor func(d *observer.Dispatch) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry dispatch middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithDispatchFilter sets a filter function for dispatches.
func WithDispatchFilter(filter func(d *observer.Dispatch) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(d *observer.Dispatch) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates dispatch middleware that traces every dispatch.
//
// The middleware:
//   - Creates a span per dispatch named "observer.dispatch"
//   - Records the observer's canonical id, the firing target, and the
//     dispatch correlation id as attributes
//   - Records errors and sets span status; the deliberate skip signal is
//     recorded as an event, not an error
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it in
// your main() before dispatching:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) observer.DispatchMiddleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Resolve tracer from global provider
	config.tracer = otel.Tracer(config.TracerName)

	return func(next observer.DispatchFunc) observer.DispatchFunc {
		return func(ctx context.Context, d *observer.Dispatch, args observer.Args) (observer.Updates, error) {
			if config.Filter != nil && !config.Filter(d) {
				return next(ctx, d, args)
			}

			attrs := []attribute.KeyValue{
				attribute.String("teakit.observer_id", d.Observer.ID()),
				attribute.String("teakit.target_id", d.TargetID),
				attribute.String("teakit.target_property", d.TargetProperty),
				attribute.String("teakit.dispatch_id", d.ID),
				attribute.Bool("teakit.external", d.Observer.External()),
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(d)...)
			}

			ctx, span := config.tracer.Start(ctx, "observer.dispatch",
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			updates, err := next(ctx, d, args)
			switch {
			case err == nil:
				span.SetStatus(codes.Ok, "")
			case errors.Is(err, observer.ErrSkipDispatch):
				span.AddEvent("dispatch skipped")
			default:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}

			return updates, err
		}
	}
}
