package audit

import (
	"context"
	"time"

	"github.com/garagehq/gearbox/pkg/contextkeys"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log logs an audit event
	Log(ctx context.Context, event *Event) error

	// LogDecision logs an authorization decision
	LogDecision(ctx context.Context, userID, orgID, action string, status EventStatus, message string) error

	// LogMembershipChange logs a membership mutation
	LogMembershipChange(ctx context.Context, eventType EventType, userID, orgID, targetUserID string, message string) error

	// Close closes the logger and flushes any buffered logs
	Close() error
}

type contextKey string

// LoggerKey is the context key for the audit logger
const LoggerKey contextKey = "audit_logger"

// WithLogger adds an audit logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the audit logger from context, falling back to a
// no-op logger when none is set
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(LoggerKey).(Logger); ok {
		return logger
	}
	return &noOpLogger{}
}

// buildBaseEvent creates a base audit event with common fields populated
func buildBaseEvent(ctx context.Context, eventType EventType, status EventStatus) *Event {
	return &Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
		RequestID: contextkeys.GetRequestID(ctx),
		Metadata:  make(map[string]interface{}),
	}
}

// noOpLogger is used when no logger is configured
type noOpLogger struct{}

func (l *noOpLogger) Log(ctx context.Context, event *Event) error { return nil }

func (l *noOpLogger) LogDecision(ctx context.Context, userID, orgID, action string, status EventStatus, message string) error {
	return nil
}

func (l *noOpLogger) LogMembershipChange(ctx context.Context, eventType EventType, userID, orgID, targetUserID string, message string) error {
	return nil
}

func (l *noOpLogger) Close() error { return nil }
