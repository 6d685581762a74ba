package api

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"

	"guitar-service/internal/model"
)

type callerKey struct{}

// WithCaller stores the authenticated caller so log records written under ctx
// name who made the request.
func WithCaller(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, identity)
}

// RequestHandler tags records with the active span and the authenticated caller.
type RequestHandler struct {
	next slog.Handler
}

func NewRequestHandler(next slog.Handler) *RequestHandler {
	return &RequestHandler{next: next}
}

func (h *RequestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RequestHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()), slog.String("span_id", sc.SpanID().String()))
	}
	if caller, ok := ctx.Value(callerKey{}).(model.Identity); ok {
		r.AddAttrs(slog.Group("caller", slog.Int64("user_id", caller.UserID), slog.String("username", caller.Username)))
	}

	return h.next.Handle(ctx, r)
}

func (h *RequestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewRequestHandler(h.next.WithAttrs(attrs))
}

func (h *RequestHandler) WithGroup(name string) slog.Handler {
	return NewRequestHandler(h.next.WithGroup(name))
}

// NewLogger writes JSON records at or above level.
func NewLogger(w io.Writer, serviceName string, level slog.Leveler) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRequestHandler(handler)).With(slog.String("service", serviceName))
}

func SetupGlobalHandler(serviceName string, level slog.Level) {
	slog.SetDefault(NewLogger(os.Stdout, serviceName, level))

	slog.Info("Logger initialized", "service", serviceName, "level", level.String())
}
