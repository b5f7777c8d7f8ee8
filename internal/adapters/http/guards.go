package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/account-service/internal/domain"
	"github.com/viralforge/account-service/internal/ports"
)

func guardAuditEvent(r *http.Request, action domain.AuditAction, userID *uuid.UUID, email, details string) domain.AuditEvent {
	return domain.AuditEvent{
		EventID:   uuid.New(),
		Action:    action,
		UserID:    userID,
		Email:     email,
		IP:        readIP(r),
		UserAgent: r.UserAgent(),
		RequestID: requestIDFromContext(r.Context()),
		Details:   details,
		Timestamp: time.Now().UTC(),
		Success:   false,
	}
}

// TierLimit is one fixed-window request budget. A request must fit
// every tier applied to its route.
type TierLimit struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// RateLimiter enforces per-client fixed-window budgets backed by the
// shared counter store. Counters are keyed by tier, client address and
// route so one noisy endpoint cannot starve the rest.
type RateLimiter struct {
	store  ports.RateLimitStore
	audit  ports.AuditRecorder
	logger *slog.Logger
}

func NewRateLimiter(store ports.RateLimitStore, audit ports.AuditRecorder, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		store:  store,
		audit:  audit,
		logger: logger.With("module", "http.rate_limiter", "layer", "adapter"),
	}
}

// Limit returns middleware enforcing every given tier. When the counter
// store is unreachable the request is allowed through; availability of
// the auth surface wins over strict enforcement.
func (l *RateLimiter) Limit(tiers ...TierLimit) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := readIP(r)
			for _, tier := range tiers {
				key := fmt.Sprintf("%s:%s:%s", tier.Name, ip, r.URL.Path)
				count, err := l.store.Incr(r.Context(), key, tier.Window)
				if err != nil {
					l.logger.WarnContext(r.Context(), "rate limit store unavailable; allowing request",
						"operation", "rate_limit",
						"outcome", "degraded",
						"tier", tier.Name,
						"error", err,
					)
					continue
				}
				if count > tier.Limit {
					if l.audit != nil {
						l.audit.Record(r.Context(), guardAuditEvent(r, domain.AuditRateLimitHit, nil, "",
							fmt.Sprintf("tier %s exceeded: %d/%d", tier.Name, count, tier.Limit)))
					}
					w.Header().Set("Retry-After", fmt.Sprintf("%d", int(tier.Window.Seconds())))
					writeError(w, r, http.StatusTooManyRequests, "Too Many Requests")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFGuard applies origin screening to state-changing requests.
//
// Requests without an Origin header pass; native clients and same-origin
// form posts do not reliably send one. Outside production nothing is
// rejected, it is only logged, so local frontends on arbitrary ports
// keep working. The X-Requested-With header is advisory and never
// causes a rejection on its own.
type CSRFGuard struct {
	production     bool
	allowedOrigins []string
	audit          ports.AuditRecorder
	logger         *slog.Logger
}

func NewCSRFGuard(production bool, allowedOrigins []string, audit ports.AuditRecorder, logger *slog.Logger) *CSRFGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSRFGuard{
		production:     production,
		allowedOrigins: allowedOrigins,
		audit:          audit,
		logger:         logger.With("module", "http.csrf_guard", "layer", "adapter"),
	}
}

var stateChangingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

func (g *CSRFGuard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !stateChangingMethods[r.Method] {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("X-Requested-With") == "" {
			g.logger.DebugContext(r.Context(), "state-changing request without X-Requested-With",
				"operation", "csrf_check",
				"path", r.URL.Path,
			)
		}

		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !g.production && isLoopbackOrigin(origin) {
			next.ServeHTTP(w, r)
			return
		}

		if g.originAllowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		if !g.production {
			g.logger.WarnContext(r.Context(), "origin not in allow-list; passing outside production",
				"operation", "csrf_check",
				"outcome", "degraded",
				"origin", origin,
				"path", r.URL.Path,
			)
			next.ServeHTTP(w, r)
			return
		}

		if g.audit != nil {
			g.audit.Record(r.Context(), guardAuditEvent(r, domain.AuditCSRFBlocked, nil, "",
				"origin not allowed: "+origin))
		}
		writeError(w, r, http.StatusForbidden, "CSRF validation failed: Origin not allowed")
	})
}

// originAllowed accepts exact matches plus prefix and substring hits so
// an allow-list entry can cover a whole scheme-and-host family.
func (g *CSRFGuard) originAllowed(origin string) bool {
	for _, allowed := range g.allowedOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "" {
			continue
		}
		if origin == allowed || strings.HasPrefix(origin, allowed) || strings.Contains(origin, allowed) {
			return true
		}
	}
	return false
}

func isLoopbackOrigin(origin string) bool {
	return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
}

// AuthGuard admits only requests carrying a valid access token and
// attaches the verified identity to the request context.
type AuthGuard struct {
	issuer ports.TokenIssuer
	audit  ports.AuditRecorder
}

func NewAuthGuard(issuer ports.TokenIssuer, audit ports.AuditRecorder) *AuthGuard {
	return &AuthGuard{issuer: issuer, audit: audit}
}

func (g *AuthGuard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerTokenFromHeader(r)
		if token == "" {
			g.reject(w, r, "missing bearer token")
			return
		}
		claims, err := g.issuer.ParseAccess(token)
		if err != nil {
			g.reject(w, r, "access token rejected: "+err.Error())
			return
		}
		ctx := contextWithIdentity(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *AuthGuard) reject(w http.ResponseWriter, r *http.Request, details string) {
	if g.audit != nil {
		g.audit.Record(r.Context(), guardAuditEvent(r, domain.AuditUnauthorizedAccess, nil, "", details))
	}
	writeError(w, r, http.StatusUnauthorized, "Unauthorized")
}

// RefreshGuard validates the presented refresh token's signature and
// passes both the claims and the raw token downstream; the handler still
// has to match the raw token against the stored hash.
type RefreshGuard struct {
	issuer ports.TokenIssuer
	audit  ports.AuditRecorder
}

func NewRefreshGuard(issuer ports.TokenIssuer, audit ports.AuditRecorder) *RefreshGuard {
	return &RefreshGuard{issuer: issuer, audit: audit}
}

func (g *RefreshGuard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerTokenFromHeader(r)
		if token == "" {
			g.reject(w, r, "missing refresh token")
			return
		}
		claims, err := g.issuer.ParseRefresh(token)
		if err != nil {
			g.reject(w, r, "refresh token rejected: "+err.Error())
			return
		}
		ctx := contextWithIdentity(r.Context(), claims)
		ctx = contextWithRefreshToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *RefreshGuard) reject(w http.ResponseWriter, r *http.Request, details string) {
	if g.audit != nil {
		g.audit.Record(r.Context(), guardAuditEvent(r, domain.AuditUnauthorizedAccess, nil, "", details))
	}
	writeError(w, r, http.StatusUnauthorized, "Unauthorized")
}
