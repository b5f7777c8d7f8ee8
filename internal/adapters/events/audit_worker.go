package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/viralforge/account-service/internal/domain"
	"github.com/viralforge/account-service/internal/ports"
)

// AuditPublishWorker drains unpublished audit rows and pushes them to
// the broker. Separating the transactional append from delivery keeps
// the request path free of broker availability concerns.
type AuditPublishWorker struct {
	logger     *slog.Logger
	repo       ports.AuditLogRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	maxRetries int
}

// NewAuditPublishWorker constructs the publish loop with sane defaults.
func NewAuditPublishWorker(
	logger *slog.Logger,
	repo ports.AuditLogRepository,
	publisher ports.EventPublisher,
	interval time.Duration,
	batchSize int,
	maxRetries int,
) *AuditPublishWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &AuditPublishWorker{
		logger:     logger.With("module", "events.audit_worker", "layer", "adapter"),
		repo:       repo,
		publisher:  publisher,
		interval:   interval,
		batchSize:  batchSize,
		maxRetries: maxRetries,
	}
}

// Run executes the periodic publish loop until context cancellation.
func (w *AuditPublishWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "audit publish iteration failed",
				"operation", "audit_publish_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *AuditPublishWorker) processOnce(ctx context.Context) error {
	events, err := w.repo.ListUnpublished(ctx, w.batchSize, w.maxRetries)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	published := 0
	failed := 0
	for _, event := range events {
		payload, err := json.Marshal(auditWirePayload(event))
		if err != nil {
			_ = w.repo.MarkFailed(ctx, event.EventID, err.Error(), now)
			continue
		}

		partitionKey := event.Email
		if event.UserID != nil {
			partitionKey = event.UserID.String()
		}
		if err := w.publisher.Publish(ctx, "auth.audit", payload, partitionKey); err != nil {
			failed++
			w.logger.WarnContext(ctx, "audit publish failed; retry scheduled",
				"operation", "publish_event",
				"outcome", "failure",
				"event_id", event.EventID,
				"action", string(event.Action),
				"error", err,
			)
			_ = w.repo.MarkFailed(ctx, event.EventID, err.Error(), now)
			continue
		}
		published++
		_ = w.repo.MarkPublished(ctx, event.EventID, now)
	}

	if len(events) > 0 {
		w.logger.InfoContext(ctx, "audit batch processed",
			"operation", "audit_publish_once",
			"outcome", "success",
			"batch_size", len(events),
			"published_count", published,
			"failed_count", failed,
		)
	}
	return nil
}

func auditWirePayload(event domain.AuditEvent) map[string]any {
	payload := map[string]any{
		"event_id":   event.EventID.String(),
		"action":     string(event.Action),
		"email":      event.Email,
		"ip":         event.IP,
		"user_agent": event.UserAgent,
		"request_id": event.RequestID,
		"details":    event.Details,
		"timestamp":  event.Timestamp.Format(time.RFC3339Nano),
		"success":    event.Success,
	}
	if event.UserID != nil {
		payload["user_id"] = event.UserID.String()
	}
	return payload
}
