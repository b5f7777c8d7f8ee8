package ports

import "github.com/google/uuid"

// PasswordHasher is the one-way salted hashing primitive used for both
// stored passwords and stored refresh tokens. No plaintext of either is
// ever persisted.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Compare returns a non-nil error on mismatch or a malformed hash.
	Compare(hash, plaintext string) error
}

// TokenHasher stores one-way salted digests of issued refresh tokens.
// Signed tokens exceed bcrypt's 72-byte input limit, so implementations
// must reduce the token to a fixed-size digest before the salted hash.
type TokenHasher interface {
	Hash(token string) (string, error)
	// Compare returns a non-nil error on mismatch or a malformed hash.
	Compare(hash, token string) error
}

// IdentityClaims is the identity embedded in both tokens of a pair.
type IdentityClaims struct {
	UserID uuid.UUID
	Email  string
}

// TokenPair is ephemeral; only the refresh token's hash is persisted.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenIssuer creates and validates signed, time-bounded bearer tokens.
// Access and refresh tokens use separate secrets so a leaked access
// secret cannot be used to forge refresh tokens.
type TokenIssuer interface {
	IssuePair(claims IdentityClaims) (TokenPair, error)
	ParseAccess(token string) (IdentityClaims, error)
	ParseRefresh(token string) (IdentityClaims, error)
}
