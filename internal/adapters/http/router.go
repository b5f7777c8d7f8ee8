package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Guards bundles the request screens the router wires in front of the
// handlers.
type Guards struct {
	RateLimiter *RateLimiter
	DefaultTier []TierLimit
	StrictTier  []TierLimit
	CSRF        *CSRFGuard
	Auth        *AuthGuard
	Refresh     *RefreshGuard
}

// NewRouter assembles the HTTP surface. Register and login sit behind
// the strict tier on top of the default budget; logout and refresh are
// reachable by GET as well as POST to match existing clients.
func NewRouter(handler *Handler, guards Guards) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/auth", func(r chi.Router) {
		if guards.RateLimiter != nil && len(guards.DefaultTier) > 0 {
			r.Use(guards.RateLimiter.Limit(guards.DefaultTier...))
		}
		if guards.CSRF != nil {
			r.Use(guards.CSRF.Protect)
		}

		r.Group(func(r chi.Router) {
			if guards.RateLimiter != nil && len(guards.StrictTier) > 0 {
				r.Use(guards.RateLimiter.Limit(guards.StrictTier...))
			}
			r.Post("/register", handler.register)
			r.Post("/login", handler.login)
		})

		r.Group(func(r chi.Router) {
			r.Use(guards.Auth.Require)
			r.Get("/logout", handler.logout)
			r.Post("/logout", handler.logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(guards.Refresh.Require)
			r.Get("/refresh-tokens", handler.refreshTokens)
			r.Post("/refresh-tokens", handler.refreshTokens)
		})
	})

	return r
}
