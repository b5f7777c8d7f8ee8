package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/account-service/internal/domain"
	"github.com/viralforge/account-service/internal/ports"
)

// Service is the auth orchestrator. It owns the ordering contract for
// all four account-lifecycle operations: the business mutation completes
// (or fails) first, the audit event is emitted second, and audit
// emission never blocks or fails the primary response path.
type Service struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenHasher
	issuer ports.TokenIssuer
	audit  ports.AuditRecorder
	logger *slog.Logger
	nowFn  func() time.Time
}

type Dependencies struct {
	Users  ports.UserRepository
	Hasher ports.PasswordHasher
	Tokens ports.TokenHasher
	Issuer ports.TokenIssuer
	Audit  ports.AuditRecorder
	Logger *slog.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  deps.Users,
		hasher: deps.Hasher,
		tokens: deps.Tokens,
		issuer: deps.Issuer,
		audit:  deps.Audit,
		logger: logger.With("module", "application", "layer", "application"),
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a local account with a hashed password.
// The store maps duplicate emails to domain.ErrConflict; every outcome
// is audited after the create attempt and the original error is
// re-raised unchanged.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	if req.Password == "" {
		err := fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
		s.recordAudit(ctx, domain.AuditInvalidInput, nil, req.Email, req.ClientContext, err.Error(), false)
		return RegisterResponse{}, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.recordAudit(ctx, domain.AuditRegister, nil, req.Email, req.ClientContext, "hash password: "+err.Error(), false)
		return RegisterResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, passwordHash)
	if err != nil {
		s.recordAudit(ctx, domain.AuditRegister, nil, req.Email, req.ClientContext, err.Error(), false)
		return RegisterResponse{}, err
	}

	s.recordAudit(ctx, domain.AuditRegister, &user.UserID, user.Email, req.ClientContext, "", true)
	return RegisterResponse{
		UserID:    user.UserID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Login verifies credentials and issues a fresh token pair, rotating the
// stored refresh-token hash. A missing user and a wrong password yield
// the same error so accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, req LoginRequest) (TokenPairResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return TokenPairResponse{}, err
		}
		s.recordAudit(ctx, domain.AuditLoginFailed, nil, req.Email, req.ClientContext, "unknown account", false)
		return TokenPairResponse{}, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.recordAudit(ctx, domain.AuditLoginFailed, &user.UserID, user.Email, req.ClientContext, "password mismatch", false)
		return TokenPairResponse{}, domain.ErrInvalidCredentials
	}

	pair, err := s.rotateTokens(ctx, user)
	if err != nil {
		s.recordAudit(ctx, domain.AuditLogin, &user.UserID, user.Email, req.ClientContext, err.Error(), false)
		return TokenPairResponse{}, err
	}

	s.recordAudit(ctx, domain.AuditLogin, &user.UserID, user.Email, req.ClientContext, "", true)
	return TokenPairResponse{Tokens: pair}, nil
}

// Logout clears the stored refresh-token hash. Logging out a user with
// no active session is not an error, so the call is idempotent.
func (s *Service) Logout(ctx context.Context, req LogoutRequest) error {
	if err := s.users.UpdateRefreshTokenHash(ctx, req.UserID, nil, s.nowFn()); err != nil {
		s.recordAudit(ctx, domain.AuditLogout, &req.UserID, "", req.ClientContext, err.Error(), false)
		return err
	}
	s.recordAudit(ctx, domain.AuditLogout, &req.UserID, "", req.ClientContext, "", true)
	return nil
}

// RefreshTokens exchanges a valid refresh token for a new pair and
// rotates the stored hash, invalidating the presented token.
//
// The failure split is deliberate: a missing user and a stored-hash
// mismatch both answer "Access Denied" so the caller cannot tell which
// check failed, while an empty presented token is a distinct
// unauthorized error checked only after existence is confirmed.
func (s *Service) RefreshTokens(ctx context.Context, req RefreshRequest) (TokenPairResponse, error) {
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return TokenPairResponse{}, err
		}
		s.recordAudit(ctx, domain.AuditTokenRefresh, &req.UserID, "", req.ClientContext, "unknown account", false)
		return TokenPairResponse{}, domain.ErrAccessDenied
	}
	if user.RefreshTokenHash == nil {
		s.recordAudit(ctx, domain.AuditTokenRefresh, &user.UserID, user.Email, req.ClientContext, "no active session", false)
		return TokenPairResponse{}, domain.ErrAccessDenied
	}

	if req.RefreshToken == "" {
		s.recordAudit(ctx, domain.AuditTokenRefresh, &user.UserID, user.Email, req.ClientContext, "empty refresh token", false)
		return TokenPairResponse{}, domain.ErrInvalidRefreshToken
	}

	if err := s.tokens.Compare(*user.RefreshTokenHash, req.RefreshToken); err != nil {
		s.recordAudit(ctx, domain.AuditTokenRefresh, &user.UserID, user.Email, req.ClientContext, "refresh token mismatch", false)
		return TokenPairResponse{}, domain.ErrAccessDenied
	}

	pair, err := s.rotateTokens(ctx, user)
	if err != nil {
		s.recordAudit(ctx, domain.AuditTokenRefresh, &user.UserID, user.Email, req.ClientContext, err.Error(), false)
		return TokenPairResponse{}, err
	}

	s.recordAudit(ctx, domain.AuditTokenRefresh, &user.UserID, user.Email, req.ClientContext, "", true)
	return TokenPairResponse{Tokens: pair}, nil
}

// rotateTokens issues a pair and installs the new refresh-token hash in
// a single atomic write. Two concurrent rotations for the same user may
// both succeed; the last writer wins and the loser's refresh token is
// unusable on its next presentation.
func (s *Service) rotateTokens(ctx context.Context, user domain.User) (ports.TokenPair, error) {
	pair, err := s.issuer.IssuePair(ports.IdentityClaims{
		UserID: user.UserID,
		Email:  user.Email,
	})
	if err != nil {
		return ports.TokenPair{}, fmt.Errorf("sign token pair: %w", err)
	}

	refreshHash, err := s.tokens.Hash(pair.RefreshToken)
	if err != nil {
		return ports.TokenPair{}, fmt.Errorf("hash refresh token: %w", err)
	}
	if err := s.users.UpdateRefreshTokenHash(ctx, user.UserID, &refreshHash, s.nowFn()); err != nil {
		return ports.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

func (s *Service) recordAudit(ctx context.Context, action domain.AuditAction, userID *uuid.UUID, email string, client ClientContext, details string, success bool) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, domain.AuditEvent{
		EventID:   uuid.New(),
		Action:    action,
		UserID:    userID,
		Email:     email,
		IP:        client.IP,
		UserAgent: client.UserAgent,
		RequestID: client.RequestID,
		Details:   details,
		Timestamp: s.nowFn(),
		Success:   success,
	})
}
