// Package otel sets up OpenTelemetry tracing for avo processes. Tracing is
// off unless AVO_OTEL_ENDPOINT names an OTLP/HTTP collector.
package otel

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/avo/internal/platform/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Settings are the tracing switches read from the environment.
type Settings struct {
	Endpoint string `env:"AVO_OTEL_ENDPOINT"`
	// Enabled set to "false" turns tracing off even with an endpoint.
	Enabled string `env:"AVO_OTEL_ENABLED"`
	// SampleRatio applies to root spans; children follow their parent.
	SampleRatio float64 `env:"AVO_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (s Settings) active() bool {
	return strings.TrimSpace(s.Endpoint) != "" && !strings.EqualFold(strings.TrimSpace(s.Enabled), "false")
}

// Shutdown flushes buffered spans.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup reads Settings from the environment and installs a global tracer
// provider for serviceName when tracing is active. The returned Shutdown is
// never nil.
func Setup(ctx context.Context, serviceName string) (Shutdown, error) {
	var s Settings
	if err := config.ParseEnv(&s); err != nil {
		return noop, err
	}
	return Install(ctx, serviceName, s)
}

// Install is Setup with explicit settings.
func Install(ctx context.Context, serviceName string, s Settings) (Shutdown, error) {
	if !s.active() {
		return noop, nil
	}
	if s.SampleRatio < 0 || s.SampleRatio > 1 {
		return noop, fmt.Errorf("sample ratio %v outside [0, 1]", s.SampleRatio)
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(strings.TrimSpace(s.Endpoint)))
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return provider.Shutdown, nil
}

// Tracer returns a tracer from the global provider, a no-op one until
// Setup installs a provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
