package logcontext

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Fields is the context key under which slog attributes are accumulated.
var Fields = ctxKey{}

// AppendCtx returns a context carrying the given attrs in addition to any
// attrs already present. Handlers that understand Fields attach them to every
// record logged with the returned context.
func AppendCtx(parent context.Context, attrs ...slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if existing, ok := parent.Value(Fields).([]slog.Attr); ok {
		merged := make([]slog.Attr, 0, len(existing)+len(attrs))
		merged = append(merged, existing...)
		merged = append(merged, attrs...)
		return context.WithValue(parent, Fields, merged)
	}

	return context.WithValue(parent, Fields, attrs)
}

// From extracts the accumulated attrs, if any.
func From(ctx context.Context) []slog.Attr {
	if attrs, ok := ctx.Value(Fields).([]slog.Attr); ok {
		return attrs
	}
	return nil
}
