package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Environment string
	Level       string
	Output      io.Writer
	// Export sends production records to the global OTel logger provider
	// instead of Output.
	Export      bool
	ServiceName string
}

// Setup installs the process-wide slog logger. Production logs are JSON,
// everything else is text.
func Setup(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	hopts := &slog.HandlerOptions{Level: parseLevel(opts.Level, opts.Environment)}

	prod := strings.EqualFold(opts.Environment, "production")
	var base slog.Handler
	switch {
	case prod && opts.Export:
		base = otelslog.NewHandler(opts.ServiceName, otelslog.WithLoggerProvider(global.GetLoggerProvider()))
	case prod:
		base = slog.NewJSONHandler(out, hopts)
	default:
		base = slog.NewTextHandler(out, hopts)
	}
	logger := slog.New(NewContextHandler(base))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level, env string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	}
	if strings.EqualFold(env, "development") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// ContextHandler adds trace ids and Fields from the context to each record.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	f := FieldsFrom(ctx)
	if f.RequestID != "" {
		r.AddAttrs(slog.String("request_id", f.RequestID))
	}
	if f.CallerID != "" {
		r.AddAttrs(slog.String("caller_id", f.CallerID))
	}
	if f.VersionID != "" {
		r.AddAttrs(slog.String("version_id", f.VersionID))
	}
	if f.BuildID != "" {
		r.AddAttrs(slog.String("build_id", f.BuildID))
	}
	if f.Component != "" {
		r.AddAttrs(slog.String("component", f.Component))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
