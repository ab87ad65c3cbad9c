package audit

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/authz/pkg/logger"
)

// LogSink writes events as structured log records at info level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink over l. Panics on nil logger.
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		panic("audit: logger cannot be nil")
	}
	return &LogSink{logger: l.With(logger.Component("audit"))}
}

// Write implements Sink.
func (s *LogSink) Write(ctx context.Context, events []Event) error {
	for _, e := range events {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "audit event",
			slog.String("event_id", e.ID),
			logger.EventType(e.Type),
			logger.KeyID(e.KeyID),
			slog.String("action", e.Action),
			slog.String("resource", e.ResourceType+"/"+e.ResourceID),
			logger.Outcome(string(e.Outcome)),
			logger.Reason(e.Reason),
			slog.String("ip", e.IP),
			logger.RequestID(e.RequestID),
			slog.String("hash", e.Hash),
		)
	}
	return nil
}
