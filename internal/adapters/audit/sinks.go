package audit

import (
	"context"
	"log/slog"

	"github.com/viralforge/account-service/internal/domain"
	"github.com/viralforge/account-service/internal/ports"
)

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, domain.AuditEvent) {}

// SlogSink writes audit events as structured log records. Successful
// actions log at info, failures at warn, mirroring how operators triage
// the stream.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger.With("module", "audit", "layer", "adapter")}
}

func (s *SlogSink) Emit(ctx context.Context, event domain.AuditEvent) {
	fields := []any{
		"audit", true,
		"action", string(event.Action),
		"email", event.Email,
		"ip", event.IP,
		"user_agent", event.UserAgent,
		"request_id", event.RequestID,
		"details", event.Details,
		"timestamp", event.Timestamp,
		"success", event.Success,
	}
	if event.UserID != nil {
		fields = append(fields, "user_id", event.UserID.String())
	}
	if event.Success {
		s.logger.InfoContext(ctx, "audit event", fields...)
		return
	}
	s.logger.WarnContext(ctx, "audit event", fields...)
}

// RepositorySink appends events to the audit log store. Insert errors
// are logged and swallowed; audit failures must never propagate into
// the request path.
type RepositorySink struct {
	repo   ports.AuditLogRepository
	logger *slog.Logger
}

func NewRepositorySink(repo ports.AuditLogRepository, logger *slog.Logger) *RepositorySink {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepositorySink{
		repo:   repo,
		logger: logger.With("module", "audit", "layer", "adapter"),
	}
}

func (s *RepositorySink) Emit(ctx context.Context, event domain.AuditEvent) {
	if err := s.repo.Insert(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit insert failed",
			"operation", "audit_insert",
			"outcome", "failure",
			"action", string(event.Action),
			"error", err,
		)
	}
}

// FanoutSink forwards each event to every configured sink in order.
type FanoutSink struct {
	sinks []ports.AuditSink
}

func NewFanoutSink(sinks ...ports.AuditSink) *FanoutSink {
	kept := make([]ports.AuditSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	return &FanoutSink{sinks: kept}
}

func (s *FanoutSink) Emit(ctx context.Context, event domain.AuditEvent) {
	for _, sink := range s.sinks {
		sink.Emit(ctx, event)
	}
}
