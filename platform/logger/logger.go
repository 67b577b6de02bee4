// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// EventIDKey is the context key for the envelope event ID
	EventIDKey contextKey = "event_id"
	// ConversationIDKey is the context key for the ticket conversation ID
	ConversationIDKey contextKey = "conversation_id"
)

// Logger wraps slog.Logger for structured logging.
// Reply bodies and raw ticket payloads must never be passed as attributes;
// log identifiers, reasons, booleans, and fingerprints only.
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports event_id and conversation_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if eventID, ok := ctx.Value(EventIDKey).(string); ok && eventID != "" {
		newLogger = newLogger.WithEventID(eventID)
	}

	if conversationID, ok := ctx.Value(ConversationIDKey).(string); ok && conversationID != "" {
		newLogger = newLogger.WithConversationID(conversationID)
	}

	return newLogger
}

// WithEventID returns a logger with the envelope event ID bound.
func (l *Logger) WithEventID(eventID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("event_id", eventID)),
	}
}

// WithConversationID returns a logger with the conversation ID bound.
func (l *Logger) WithConversationID(conversationID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("conversation_id", conversationID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// OutboundCall logs a call to an upstream API. Only the endpoint label and
// status cross the log boundary, never request or response bodies.
func (l *Logger) OutboundCall(service, operation string, status int, err error) {
	if err != nil {
		l.Error("outbound_call",
			slog.String("service", service),
			slog.String("operation", operation),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Info("outbound_call",
		slog.String("service", service),
		slog.String("operation", operation),
		slog.Int("status", status),
	)
}

// PipelineSkip logs a gating skip with its terminal reason.
func (l *Logger) PipelineSkip(eventID, reason string) {
	l.Info("pipeline_skip",
		slog.String("event_id", eventID),
		slog.String("reason", reason),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
