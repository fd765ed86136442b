package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	// WithContext binds ctx to every record. The operation, run ID and
	// active span found in ctx are added as op, run_id and trace_id.
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is debug, info, warn or error.
	Level string
	// Format is json or text.
	Format string
	// Output defaults to os.Stderr.
	Output    io.Writer
	AddSource bool
}

// level is shared by every logger built with New so SetLevel applies to
// all of them.
var level = new(slog.LevelVar)

type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

// New creates a logger. It also sets the shared level.
func New(cfg Config) (Logger, error) {
	level.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		h = slog.NewTextHandler(out, opts)
	default:
		h = slog.NewJSONHandler(out, opts)
	}
	return newLogger(contextHandler{h}), nil
}

// Discard returns a logger that drops every record.
func Discard() Logger {
	return newLogger(slog.DiscardHandler)
}

func newLogger(h slog.Handler) *slogLogger {
	return &slogLogger{logger: slog.New(h), ctx: context.Background()}
}

// SetLevel changes the level of every logger built with New.
func SetLevel(lvl string) {
	level.Set(parseLevel(lvl))
}

// GetLevel returns the current level name.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.DebugContext(l.ctx, msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.InfoContext(l.ctx, msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.WarnContext(l.ctx, msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.ErrorContext(l.ctx, msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}

// contextHandler adds op, run_id and trace_id from the record context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if op := OpFromContext(ctx); op != "" {
		r.AddAttrs(slog.String("op", op))
	}
	if id := RunIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("run_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

var std atomic.Value // holds Logger

func init() {
	l, _ := New(Config{})
	std.Store(l)
}

// SetDefault replaces the process logger returned by Default.
func SetDefault(l Logger) {
	if l != nil {
		std.Store(l)
	}
}

// Default returns the process logger.
func Default() Logger {
	return std.Load().(Logger)
}
