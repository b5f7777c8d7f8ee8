package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction enumerates the security-relevant action kinds this service records.
type AuditAction string

const (
	AuditRegister           AuditAction = "REGISTER"
	AuditLogin              AuditAction = "LOGIN"
	AuditLoginFailed        AuditAction = "LOGIN_FAILED"
	AuditLogout             AuditAction = "LOGOUT"
	AuditTokenRefresh       AuditAction = "TOKEN_REFRESH"
	AuditRateLimitHit       AuditAction = "RATE_LIMIT_HIT"
	AuditCSRFBlocked        AuditAction = "CSRF_BLOCKED"
	AuditUnauthorizedAccess AuditAction = "UNAUTHORIZED_ACCESS"
	AuditInvalidInput       AuditAction = "INVALID_INPUT"
	AuditPasswordChange     AuditAction = "PASSWORD_CHANGE"
	AuditProfileUpdate      AuditAction = "PROFILE_UPDATE"
)

// AuditEvent is one append-only record of a security-relevant outcome.
// Events are write-once; this core never mutates or deletes them.
type AuditEvent struct {
	EventID   uuid.UUID
	Action    AuditAction
	UserID    *uuid.UUID
	Email     string
	IP        string
	UserAgent string
	RequestID string
	Details   string
	Timestamp time.Time
	Success   bool
}
