package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/viralforge/account-service/internal/ports"
)

// JWTIssuer implements HS256 signing for access/refresh token pairs.
// The two token kinds use separate secrets and lifetimes so a leaked
// access-token secret cannot be used to forge refresh tokens. Secrets
// are held at adapter level so the application layer stays
// crypto-library agnostic.
type JWTIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	nowFn         func() time.Time
}

// NewJWTIssuer builds an issuer from configured secrets and lifetimes.
func NewJWTIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*JWTIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("jwt access/refresh secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("jwt access and refresh secrets must differ")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}, nil
}

type identityJWTClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// IssuePair signs an access and a refresh token carrying the same
// identity claims. Tokens are self-contained; the only server-side
// state is the stored refresh-token hash.
func (i *JWTIssuer) IssuePair(claims ports.IdentityClaims) (ports.TokenPair, error) {
	accessToken, err := i.sign(claims, i.accessSecret, i.accessTTL)
	if err != nil {
		return ports.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := i.sign(claims, i.refreshSecret, i.refreshTTL)
	if err != nil {
		return ports.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return ports.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (i *JWTIssuer) ParseAccess(token string) (ports.IdentityClaims, error) {
	return i.parse(token, i.accessSecret)
}

func (i *JWTIssuer) ParseRefresh(token string) (ports.IdentityClaims, error) {
	return i.parse(token, i.refreshSecret)
}

func (i *JWTIssuer) sign(claims ports.IdentityClaims, secret []byte, ttl time.Duration) (string, error) {
	now := i.nowFn()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, identityJWTClaims{
		UserID: claims.UserID.String(),
		Email:  claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secret)
}

func (i *JWTIssuer) parse(raw string, secret []byte) (ports.IdentityClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &identityJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.IdentityClaims{}, err
	}
	claims, ok := parsed.Claims.(*identityJWTClaims)
	if !ok || !parsed.Valid {
		return ports.IdentityClaims{}, errors.New("invalid token claims")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ports.IdentityClaims{}, fmt.Errorf("parse user id: %w", err)
	}
	return ports.IdentityClaims{
		UserID: userID,
		Email:  claims.Email,
	}, nil
}
