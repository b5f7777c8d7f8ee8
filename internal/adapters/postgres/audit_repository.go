package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viralforge/account-service/internal/domain"
)

// AuditLogRepository appends security events to an append-only table.
// The core only inserts; publish bookkeeping columns exist for the
// worker that streams events to the broker.
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Insert(ctx context.Context, event domain.AuditEvent) error {
	rec := auditEventModel{
		EventID:    event.EventID,
		Action:     string(event.Action),
		UserID:     event.UserID,
		Email:      event.Email,
		IPAddress:  event.IP,
		UserAgent:  event.UserAgent,
		RequestID:  event.RequestID,
		Details:    event.Details,
		OccurredAt: event.Timestamp,
		Success:    event.Success,
	}
	if rec.EventID == uuid.Nil {
		rec.EventID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *AuditLogRepository) ListUnpublished(ctx context.Context, limit, maxRetries int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("occurred_at ASC").
		Limit(limit)
	if maxRetries > 0 {
		query = query.Where("retry_count < ?", maxRetries)
	}
	var recs []auditEventModel
	err := query.Find(&recs).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.AuditEvent, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.AuditEvent{
			EventID:   rec.EventID,
			Action:    domain.AuditAction(rec.Action),
			UserID:    rec.UserID,
			Email:     rec.Email,
			IP:        rec.IPAddress,
			UserAgent: rec.UserAgent,
			RequestID: rec.RequestID,
			Details:   rec.Details,
			Timestamp: rec.OccurredAt,
			Success:   rec.Success,
		})
	}
	return out, nil
}

func (r *AuditLogRepository) MarkPublished(ctx context.Context, eventID uuid.UUID, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&auditEventModel{}).
		Where("event_id = ?", eventID).
		Update("published_at", publishedAt).Error
}

func (r *AuditLogRepository) MarkFailed(ctx context.Context, eventID uuid.UUID, reason string, failedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&auditEventModel{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_error":    reason,
			"last_error_at": failedAt,
		}).Error
}
