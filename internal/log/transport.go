package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// WithContext stores the logger in ctx
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context, or returns fallback when
// ctx carries none. A nil fallback yields the process default logger.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Transport logs every outgoing request made through it. Responses with a
// 4xx status log at warn, 5xx and transport failures at error, the rest at
// debug. A logger stored in the request context with WithContext is used in
// place of Logger, keeping Logger's component.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	logger := FromContext(r.Context(), t.Logger)
	if t.Logger != nil {
		logger = logger.WithComponent(t.Logger.component)
	}

	start := time.Now()
	resp, err := base.RoundTrip(r)
	durationMs := time.Since(start).Milliseconds()

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
		WithRequestID(r.Header.Get("X-Request-ID"))

	if err != nil {
		fields = fields.WithError(err).WithHTTPResponse(0, durationMs)
		fields[FieldErrorType] = ErrorTypeNetwork
		logger.ErrorContext(r.Context(), "HTTP request failed", fields.ToSlice()...)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 500 {
		level = slog.LevelError
	} else if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}

	fields = fields.WithHTTPResponse(resp.StatusCode, durationMs)
	logger.Log(r.Context(), level, "HTTP request completed", fields.ToSlice()...)
	return resp, nil
}
