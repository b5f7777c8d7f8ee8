package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/account-service/internal/ports"
)

// ClientContext is the per-request caller metadata threaded into every
// operation for audit correlation. All fields are optional.
type ClientContext struct {
	IP        string `json:"-"`
	UserAgent string `json:"-"`
	RequestID string `json:"-"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientContext
}

type RegisterResponse struct {
	UserID    uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientContext
}

type LogoutRequest struct {
	UserID uuid.UUID
	ClientContext
}

type RefreshRequest struct {
	UserID       uuid.UUID
	RefreshToken string
	ClientContext
}

// TokenPairResponse wraps the issued pair the way the HTTP surface
// returns it.
type TokenPairResponse struct {
	Tokens ports.TokenPair `json:"tokens"`
}
