package logger

import "context"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	loggerKey contextKey = "worldsave.logger"
	runIDKey  contextKey = "worldsave.run_id"
	opKey     contextKey = "worldsave.op"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRunID tags the context with the ID of the save or load in progress.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts the run ID from context.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// WithOp tags the context with the operation name ("save", "load").
func WithOp(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, opKey, op)
}

// OpFromContext extracts the operation name from context.
func OpFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(opKey).(string); ok {
		return op
	}
	return ""
}

// L returns the context's logger bound to ctx, so records carry the
// operation, run ID and trace ID found there.
func L(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}
