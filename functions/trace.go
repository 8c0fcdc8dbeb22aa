package functions

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/config"
)

func InitTracing(cfg *config.Config) (*trace.TracerProvider, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("GOOGLE_CLOUD_PROJECT must be set")
	}

	ctx := context.Background()

	var opts []otlptracehttp.Option
	if cfg.TraceInsecure {
		// In local environment, TLS is not set up.
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	client := otlptracehttp.NewClient(opts...)

	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		slog.Error(
			"Failed to create OTLP trace exporter",
			slog.Group("InitTracing", "error", err),
		)
		return nil, err
	}

	resources, err := resource.New(
		ctx,
		resource.WithDetectors(gcp.NewDetector()),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.TraceName),
			semconv.CloudAccountIDKey.String(cfg.ProjectID),
		),
	)
	if err != nil {
		slog.Error(
			"Failed to create resource",
			slog.Group("InitTracing", "error", err),
		)
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(resources),
	)

	// Set the global TracerProvider to the SDK`s TracerProvider.
	// Spans started by internal packages through otel.Tracer are exported from here on.
	otel.SetTracerProvider(tp)

	// W3C Trace Context propagator
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}
