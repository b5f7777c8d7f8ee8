package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical account aggregate for the auth core.
// It keeps only credential-relevant state so session flows stay service-owned.
// RefreshTokenHash holds the salted one-way hash of the currently valid
// refresh token, or nil when the user has no active session. At most one refresh
// token is valid per user at any time; issuing a new one replaces the hash.
type User struct {
	UserID           uuid.UUID
	Email            string
	PasswordHash     string
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
