package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig controls span emission around C5 LLM calls and C13 phase
// execution. There is deliberately no collector endpoint here: the only
// exporter wired is stdouttrace, per SPEC_FULL's domain stack note that
// OTLP collector wiring is out of scope.
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	SamplingRate float64 // 0.0–1.0, default 1.0
}

// InitTracer installs a global TracerProvider per cfg and returns it so
// the caller can Shutdown it on exit. A disabled config installs the
// otel no-op provider, so GetTracer/span calls remain cheap and safe
// whether or not tracing is turned on.
func InitTracer(ctx context.Context, cfg TracingConfig) (trace.TracerProvider, error) {
	if !cfg.Enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("metrics: create stdout trace exporter: %w", err)
	}

	rate := cfg.SamplingRate
	if rate <= 0 {
		rate = 1.0
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("metrics: build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(rate)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// Tracer returns the named tracer from whichever provider InitTracer
// installed (real or no-op).
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
