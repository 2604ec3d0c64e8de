package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SlogLogger routes audit events through a structured slog logger instead of
// a raw writer, for deployments that aggregate application and audit logs in
// one pipeline.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{logger: l}
}

func (l *SlogLogger) Record(ctx context.Context, eventType EventType, action, resource string, metadata map[string]any) error {
	attrs := []any{
		"audit_id", uuid.New().String(),
		"event_type", string(eventType),
		"action", action,
		"resource", resource,
		"timestamp", time.Now().UTC(),
	}
	for k, v := range metadata {
		attrs = append(attrs, k, v)
	}
	l.logger.InfoContext(ctx, "audit event", attrs...)
	return nil
}
