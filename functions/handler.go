package functions

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

type Flush interface {
	ForceFlush(ctx context.Context) error
}

type HttpHandler func(http.ResponseWriter, *http.Request)

func InstrumentedHandler(name string, function HttpHandler, flusher Flush) HttpHandler {
	opts := []trace.SpanStartOption{
		trace.WithAttributes(semconv.FaaSTriggerHTTP),
	}

	handler := otelhttp.NewHandler(
		http.HandlerFunc(function), name, otelhttp.WithSpanOptions(opts...),
	)

	return func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)

		// Instances are frozen between invocations, so spans are flushed before returning.
		if err := flusher.ForceFlush(r.Context()); err != nil {
			// Spans left in the batcher may be lost; the response is already written.
			slog.Error(
				"Failed to flush spans",
				slog.Group("tracing", slog.Group("forceFlush", "error", err)),
			)
		}
	}
}
