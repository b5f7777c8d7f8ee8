package security

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/account-service/internal/ports"
)

func newTestIssuer(t *testing.T) *JWTIssuer {
	t.Helper()
	issuer, err := NewJWTIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("build issuer: %v", err)
	}
	return issuer
}

func TestNewJWTIssuerValidatesSecrets(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTIssuer("", "refresh", time.Minute, time.Hour); err == nil {
		t.Fatalf("expected error for empty access secret")
	}
	if _, err := NewJWTIssuer("access", "", time.Minute, time.Hour); err == nil {
		t.Fatalf("expected error for empty refresh secret")
	}
	if _, err := NewJWTIssuer("same", "same", time.Minute, time.Hour); err == nil {
		t.Fatalf("expected error for identical secrets")
	}
}

func TestIssuePairRoundTrip(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	identity := ports.IdentityClaims{UserID: uuid.New(), Email: "user@example.com"}

	pair, err := issuer.IssuePair(identity)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("incomplete pair: %+v", pair)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("access and refresh tokens should differ")
	}

	accessClaims, err := issuer.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if accessClaims != identity {
		t.Fatalf("access claims mismatch: got %+v want %+v", accessClaims, identity)
	}

	refreshClaims, err := issuer.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if refreshClaims != identity {
		t.Fatalf("refresh claims mismatch: got %+v want %+v", refreshClaims, identity)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	pair, err := issuer.IssuePair(ports.IdentityClaims{UserID: uuid.New(), Email: "user@example.com"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := issuer.ParseAccess(pair.RefreshToken); err == nil {
		t.Fatalf("refresh token must not verify as access token")
	}
	if _, err := issuer.ParseRefresh(pair.AccessToken); err == nil {
		t.Fatalf("access token must not verify as refresh token")
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	other, err := NewJWTIssuer("other-access", "other-refresh", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("build issuer: %v", err)
	}
	pair, err := other.IssuePair(ports.IdentityClaims{UserID: uuid.New(), Email: "user@example.com"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if _, err := issuer.ParseAccess(pair.AccessToken); err == nil {
		t.Fatalf("foreign signature must be rejected")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	issuer.nowFn = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	pair, err := issuer.IssuePair(ports.IdentityClaims{UserID: uuid.New(), Email: "user@example.com"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	issuer.nowFn = func() time.Time { return time.Now().UTC() }
	if _, err := issuer.ParseAccess(pair.AccessToken); err == nil {
		t.Fatalf("expired access token must be rejected")
	}
}
