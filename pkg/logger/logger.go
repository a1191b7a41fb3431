// Package logger provides structured logging for the insight service.
// It keeps a small Field-based API on top of log/slog so that HTTP and
// application code log the same way the process-level slog handler does.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses a string into a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a key-value pair attached to a log record.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

// Err creates an "error" field. A nil error is logged as null.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field rendered as a string ("1.5s").
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Logger writes structured records through a slog.Handler.
type Logger struct {
	base *slog.Logger
}

// Options configures a Logger.
type Options struct {
	Output    io.Writer
	Level     Level
	AddCaller bool
	// Text switches from JSON to key=value output, used in development.
	Text bool
}

// DefaultOptions returns JSON output to stdout at info level.
func DefaultOptions() Options {
	return Options{
		Output:    os.Stdout,
		Level:     LevelInfo,
		AddCaller: true,
	}
}

// New creates a Logger with the given options.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level.slogLevel(),
		AddSource: opts.AddCaller,
	}

	var h slog.Handler
	if opts.Text {
		h = slog.NewTextHandler(opts.Output, handlerOpts)
	} else {
		h = slog.NewJSONHandler(opts.Output, handlerOpts)
	}
	return &Logger{base: slog.New(h)}
}

// FromSlog wraps an already configured slog logger.
func FromSlog(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{base: l}
}

// Default creates a logger with default options.
func Default() *Logger {
	return New(DefaultOptions())
}

// Slog exposes the underlying slog logger for packages that take *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.base
}

// With returns a child Logger that always carries the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{base: l.base.With(toArgs(fields)...)}
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.base.LogAttrs(context.Background(), slog.LevelDebug, msg, toAttrs(fields)...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.base.LogAttrs(context.Background(), slog.LevelInfo, msg, toAttrs(fields)...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.base.LogAttrs(context.Background(), slog.LevelWarn, msg, toAttrs(fields)...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.base.LogAttrs(context.Background(), slog.LevelError, msg, toAttrs(fields)...)
}

// Fatal logs at error level and exits the program.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.Error(msg, fields...)
	os.Exit(1)
}

func toAttrs(fields []Field) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return attrs
}

func toArgs(fields []Field) []any {
	args := make([]any, 0, len(fields))
	for _, a := range toAttrs(fields) {
		args = append(args, a)
	}
	return args
}

type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or returns a default logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

// RequestIDKey is the field key used for request tracing.
const RequestIDKey = "request_id"

// WithRequestID returns a logger with the request ID field added.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With(String(RequestIDKey, requestID))
}

// Domain helpers.
func StudentID(id string) Field      { return String("student_id", id) }
func CourseID(id string) Field       { return String("course_id", id) }
func ContextType(kind string) Field  { return String("context_type", kind) }
func Component(name string) Field    { return String("component", name) }
func Operation(name string) Field    { return String("operation", name) }
func Latency(d time.Duration) Field  { return Duration("latency", d) }
