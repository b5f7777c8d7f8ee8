package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/account-service/internal/domain"
)

// UserRepository is the credential store contract.
// Email normalization (trim + lowercase) happens inside the adapter on
// every write and every read-by-email so both sides always compare the
// same canonical form.
type UserRepository interface {
	// Create persists a new user with an already-hashed password.
	// A duplicate email maps to domain.ErrConflict.
	Create(ctx context.Context, email, passwordHash string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	// UpdateRefreshTokenHash rotates the stored refresh-token hash in a
	// single atomic write. A nil hash clears the active session.
	UpdateRefreshTokenHash(ctx context.Context, userID uuid.UUID, hash *string, updatedAt time.Time) error
}

// AuditLogRepository appends audit events and feeds the publish worker.
// Rows are write-once for the core; only publish bookkeeping mutates.
type AuditLogRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
	// ListUnpublished returns pending events in occurrence order. Events
	// whose retry count reached maxRetries stay parked and are excluded;
	// maxRetries <= 0 disables parking.
	ListUnpublished(ctx context.Context, limit, maxRetries int) ([]domain.AuditEvent, error)
	MarkPublished(ctx context.Context, eventID uuid.UUID, publishedAt time.Time) error
	MarkFailed(ctx context.Context, eventID uuid.UUID, reason string, failedAt time.Time) error
}
