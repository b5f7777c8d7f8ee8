package postgres

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string    `gorm:"column:email"`
	PasswordHash     string    `gorm:"column:password_hash"`
	RefreshTokenHash *string   `gorm:"column:refresh_token_hash"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type auditEventModel struct {
	EventID     uuid.UUID  `gorm:"column:event_id;type:uuid;primaryKey"`
	Action      string     `gorm:"column:action"`
	UserID      *uuid.UUID `gorm:"column:user_id"`
	Email       string     `gorm:"column:email"`
	IPAddress   string     `gorm:"column:ip_address"`
	UserAgent   string     `gorm:"column:user_agent"`
	RequestID   string     `gorm:"column:request_id"`
	Details     string     `gorm:"column:details"`
	OccurredAt  time.Time  `gorm:"column:occurred_at"`
	Success     bool       `gorm:"column:success"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	RetryCount  int        `gorm:"column:retry_count"`
	LastError   *string    `gorm:"column:last_error"`
	LastErrorAt *time.Time `gorm:"column:last_error_at"`
}

func (auditEventModel) TableName() string { return "audit_events" }
