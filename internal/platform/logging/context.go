package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type loggerKey struct{}

var fallback = slog.Default()

// IDs tie log lines to the request or sync round that produced them.
// Empty fields are omitted.
type IDs struct {
	Request     string
	Correlation string
	Trace       string
}

// TraceIDs returns IDs holding the trace of the span in ctx, if it has one.
func TraceIDs(ctx context.Context) IDs {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return IDs{Trace: sc.TraceID().String()}
	}

	return IDs{}
}

func (ids IDs) attrs() []any {
	attrs := make([]any, 0, 3)

	for _, a := range []struct{ key, val string }{
		{"request_id", ids.Request},
		{"correlation_id", ids.Correlation},
		{"trace_id", ids.Trace},
	} {
		if a.val != "" {
			attrs = append(attrs, slog.String(a.key, a.val))
		}
	}

	return attrs
}

// Scope tags base with ids, stores the result in ctx and returns both.
func Scope(ctx context.Context, base *slog.Logger, ids IDs) (context.Context, *slog.Logger) {
	if base == nil {
		base = FromContext(ctx)
	}

	if attrs := ids.attrs(); len(attrs) > 0 {
		base = base.With(attrs...)
	}

	return WithContext(ctx, base), base
}

// FromContext returns the logger in ctx, or the process default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := Lookup(ctx); ok {
		return logger
	}

	return fallback
}

// Lookup returns the logger stored in ctx, if any.
func Lookup(ctx context.Context) (*slog.Logger, bool) {
	if ctx == nil {
		return nil, false
	}

	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)

	return logger, ok
}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// SetDefault replaces both the fallback returned by FromContext and
// slog's default.
func SetDefault(logger *slog.Logger) {
	fallback = logger
	slog.SetDefault(logger)
}
