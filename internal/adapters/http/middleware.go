package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/account-service/internal/ports"
)

type contextKey string

const (
	requestIDContextKey    contextKey = "request_id"
	identityContextKey     contextKey = "identity_claims"
	refreshTokenContextKey contextKey = "refresh_token"
)

const requestIDHeader = "X-Request-Id"

// requestIDMiddleware reuses the caller-supplied correlation id when
// present and mints one otherwise. The id is echoed back on the
// response so clients can quote it in support requests.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey).(string); ok {
		return requestID
	}
	return ""
}

func contextWithIdentity(ctx context.Context, claims ports.IdentityClaims) context.Context {
	return context.WithValue(ctx, identityContextKey, claims)
}

func contextWithRefreshToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, refreshTokenContextKey, token)
}

func identityFromContext(ctx context.Context) (ports.IdentityClaims, bool) {
	claims, ok := ctx.Value(identityContextKey).(ports.IdentityClaims)
	return claims, ok
}

func refreshTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(refreshTokenContextKey).(string); ok {
		return token
	}
	return ""
}

// recoverMiddleware converts handler panics into a sanitized 500.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpLogger().ErrorContext(r.Context(), "handler panic recovered",
					"operation", "recover",
					"outcome", "failure",
					"panic", rec,
					"path", r.URL.Path,
					"request_id", requestIDFromContext(r.Context()),
				)
				writeError(w, r, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		httpLogger().InfoContext(r.Context(), "http request",
			"operation", "serve_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", recorder.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		)
	})
}

// readIP resolves the client address, preferring the first entry of
// X-Forwarded-For when a proxy sits in front of the service.
func readIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func bearerTokenFromHeader(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
