package security

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// RefreshTokenHasher produces the stored form of issued refresh tokens.
// A signed refresh token is around 230 bytes, well past bcrypt's 72-byte
// input limit, and bcrypt rejects longer inputs outright. The token is
// therefore reduced to a SHA-256 digest first and the digest is bcrypt
// hashed, so the stored value still binds the entire token and stays
// salted per write.
type RefreshTokenHasher struct {
	cost int
}

// NewRefreshTokenHasher creates a digest-then-bcrypt hasher with default fallback cost.
func NewRefreshTokenHasher(cost int) *RefreshTokenHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &RefreshTokenHasher{cost: cost}
}

// digestToken reduces a token of any length to 43 base64 bytes, safely
// inside bcrypt's input limit. Encoding avoids NUL bytes in the digest.
func digestToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(sum)))
	base64.RawStdEncoding.Encode(out, sum[:])
	return out
}

func (h *RefreshTokenHasher) Hash(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(digestToken(token), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare returns a non-nil error on mismatch or a malformed hash.
func (h *RefreshTokenHasher) Compare(hash, token string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), digestToken(token))
}
