// Package telemetry installs the OpenTelemetry tracer provider.
//
// Tracing is off unless OTEL_EXPORTER_OTLP_ENDPOINT (or the traces specific
// OTEL_EXPORTER_OTLP_TRACES_ENDPOINT) is set, in which case spans are sent
// with OTLP over gRPC. The exporter reads the other standard OTEL_EXPORTER_OTLP
// variables itself.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	EnvEndpoint       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvTracesEndpoint = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	EnvSDKDisabled    = "OTEL_SDK_DISABLED"
)

// ShutdownFunc flushes pending spans and stops the provider.
type ShutdownFunc func(context.Context) error

// Enabled reports whether an exporter endpoint is configured.
func Enabled() bool {
	if strings.EqualFold(os.Getenv(EnvSDKDisabled), "true") {
		return false
	}

	return os.Getenv(EnvEndpoint) != "" || os.Getenv(EnvTracesEndpoint) != ""
}

// Setup installs a global tracer provider for the service. When tracing is
// not enabled, the global no-op provider is left in place and the returned
// [ShutdownFunc] does nothing.
func Setup(ctx context.Context, service, version string) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	if !Enabled() {
		return noop, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return noop, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(service),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		slog.DebugContext(ctx, "merge telemetry resource", slog.Any("err", err))

		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.DebugContext(ctx, "tracing enabled", slog.String("service", service))

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if err != nil {
			return fmt.Errorf("shut down tracer provider: %w", err)
		}

		return nil
	}, nil
}
