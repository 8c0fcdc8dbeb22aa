package functions

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// CustomHandler attaches the trace of the request to each record so Cloud Logging can
// correlate the log line with its span.
type CustomHandler struct {
	slog.Handler
	projectID string
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() && h.projectID != "" {
		r.AddAttrs(
			slog.String("logging.googleapis.com/trace", "projects/"+h.projectID+"/traces/"+sc.TraceID().String()),
			slog.String("logging.googleapis.com/spanId", sc.SpanID().String()),
			slog.Bool("logging.googleapis.com/trace_sampled", sc.IsSampled()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CustomHandler{Handler: h.Handler.WithAttrs(attrs), projectID: h.projectID}
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	return &CustomHandler{Handler: h.Handler.WithGroup(name), projectID: h.projectID}
}

func NewCustomLogger(svcName, projectID string) *slog.Logger {
	return newLogger(os.Stdout, svcName, projectID)
}

func newLogger(w io.Writer, svcName, projectID string) *slog.Logger {
	if svcName == "" {
		svcName = "local"
	}

	handler := &CustomHandler{
		Handler: slog.NewJSONHandler(
			w,
			&slog.HandlerOptions{
				AddSource: true,
				Level:     slog.LevelInfo,
				ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
					switch a.Key {
					case slog.MessageKey:
						a = slog.Attr{
							Key:   "message",
							Value: a.Value,
						}
					case slog.LevelKey:
						a = slog.Attr{
							Key:   "severity",
							Value: a.Value,
						}
					case slog.SourceKey:
						a = slog.Attr{
							Key:   "logging.googleapis.com/sourceLocation",
							Value: a.Value,
						}
					}
					return a
				},
			}),
		projectID: projectID,
	}

	logger := slog.New(handler).With(
		slog.Group("logging.googleapis.com/labels",
			slog.String("service", svcName),
		))

	return logger
}
