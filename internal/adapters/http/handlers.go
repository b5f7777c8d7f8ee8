package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/viralforge/account-service/internal/application"
	"github.com/viralforge/account-service/internal/domain"
)

// Handler exposes the account lifecycle over HTTP. Guards run before
// these methods, so logout and refresh can assume verified claims are
// already on the context.
type Handler struct {
	service    *application.Service
	production bool
	readiness  map[string]func(context.Context) error
}

func NewHandler(service *application.Service, production bool, readiness map[string]func(context.Context) error) *Handler {
	return &Handler{
		service:    service,
		production: production,
		readiness:  readiness,
	}
}

type registerBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) clientContext(r *http.Request) application.ClientContext {
	return application.ClientContext{
		IP:        readIP(r),
		UserAgent: r.UserAgent(),
		RequestID: requestIDFromContext(r.Context()),
	}
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	return nil
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := decodeBody(r, &body); err != nil {
		h.respondError(w, r, "register", err)
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		h.respondError(w, r, "register", fmt.Errorf("%w: email is required", domain.ErrInvalidInput))
		return
	}

	resp, err := h.service.Register(r.Context(), application.RegisterRequest{
		Email:         body.Email,
		Password:      body.Password,
		ClientContext: h.clientContext(r),
	})
	if err != nil {
		h.respondError(w, r, "register", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "User registered successfully", resp)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := decodeBody(r, &body); err != nil {
		h.respondError(w, r, "login", err)
		return
	}

	resp, err := h.service.Login(r.Context(), application.LoginRequest{
		Email:         body.Email,
		Password:      body.Password,
		ClientContext: h.clientContext(r),
	})
	if err != nil {
		h.respondError(w, r, "login", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Login successful", resp)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := identityFromContext(r.Context())
	if !ok {
		h.respondError(w, r, "logout", domain.ErrUnauthorized)
		return
	}

	err := h.service.Logout(r.Context(), application.LogoutRequest{
		UserID:        claims.UserID,
		ClientContext: h.clientContext(r),
	})
	if err != nil {
		h.respondError(w, r, "logout", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Logout successful", nil)
}

func (h *Handler) refreshTokens(w http.ResponseWriter, r *http.Request) {
	claims, ok := identityFromContext(r.Context())
	if !ok {
		h.respondError(w, r, "refresh_tokens", domain.ErrUnauthorized)
		return
	}

	resp, err := h.service.RefreshTokens(r.Context(), application.RefreshRequest{
		UserID:        claims.UserID,
		RefreshToken:  refreshTokenFromContext(r.Context()),
		ClientContext: h.clientContext(r),
	})
	if err != nil {
		h.respondError(w, r, "refresh_tokens", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Tokens refreshed successfully", resp)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "ok", nil)
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	for name, probe := range h.readiness {
		if err := probe(r.Context()); err != nil {
			logHTTPOperationError(r.Context(), "readyz", http.StatusServiceUnavailable, name+" not ready", err)
			writeError(w, r, http.StatusServiceUnavailable, name+" not ready")
			return
		}
	}
	writeSuccess(w, http.StatusOK, "ready", nil)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	statusCode, message := h.mapDomainError(err)
	logHTTPOperationError(r.Context(), operation, statusCode, message, err)
	writeError(w, r, statusCode, message)
}

// mapDomainError translates sentinel domain errors to wire responses.
// Unknown errors collapse to a generic 500; in production the internal
// detail is withheld from the body entirely.
func (h *Handler) mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "A user with this email already exists"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "Invalid refresh token"
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden, "Access Denied"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Too Many Requests"
	case errors.Is(err, domain.ErrCSRFRejected):
		return http.StatusForbidden, "CSRF validation failed: Origin not allowed"
	default:
		if h.production {
			return http.StatusInternalServerError, "Internal server error"
		}
		return http.StatusInternalServerError, err.Error()
	}
}
