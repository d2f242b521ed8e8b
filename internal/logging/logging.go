// Package logging provides structured logging with trace ID propagation.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// Logger wraps logrus with service metadata and trace-aware helpers.
type Logger struct {
	entry *logrus.Entry
}

// New creates a logger for the named service. Level is read from LOG_LEVEL
// (debug, info, warn, error); the default is info.
func New(service string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	base.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	return &Logger{entry: base.WithField("service", service)}
}

// NewNop returns a logger that discards all output. Intended for tests.
func NewNop() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(base)}
}

func parseLevel(raw string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// NewTraceID generates a fresh trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID returns a context carrying the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from the context, or "" if absent.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

func (l *Logger) withCtx(ctx context.Context) *logrus.Entry {
	if traceID := TraceID(ctx); traceID != "" {
		return l.entry.WithField("trace_id", traceID)
	}
	return l.entry
}

// WithField returns a derived logger carrying an extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.entry.Debugf(msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.entry.Infof(msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.entry.Warnf(msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.entry.Errorf(msg, args...) }

// InfoCtx logs at info level with the context's trace ID attached.
func (l *Logger) InfoCtx(ctx context.Context, msg string, args ...interface{}) {
	l.withCtx(ctx).Infof(msg, args...)
}

// WarnCtx logs at warn level with the context's trace ID attached.
func (l *Logger) WarnCtx(ctx context.Context, msg string, args ...interface{}) {
	l.withCtx(ctx).Warnf(msg, args...)
}

// ErrorCtx logs at error level with the context's trace ID attached.
func (l *Logger) ErrorCtx(ctx context.Context, msg string, args ...interface{}) {
	l.withCtx(ctx).Errorf(msg, args...)
}

// LogRequest emits the per-request access log line.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.withCtx(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}).Info("http request")
}

// LogSecurityEvent records an auditable security-relevant event.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	l.withCtx(ctx).WithField("event", event).WithFields(fields).Warn("security event")
}
