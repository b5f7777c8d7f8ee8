package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether email or password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccessDenied covers both "no stored session" and "refresh hash mismatch"
	// during rotation so a caller cannot tell which check failed.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidRefreshToken signals an empty presented refresh token.
	// It is checked only after account existence is confirmed.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("conflict")
	ErrRateLimited         = errors.New("rate limited")
	ErrCSRFRejected        = errors.New("csrf origin rejected")
)
