// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/auth. Register and login share limiter, keyed by
// client IP; a nil limiter disables limiting.
func Routes(h *Handler, mw *auth.Middleware, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		if limiter != nil {
			pr.Use(limiter.Middleware(h.Log))
		}
		pr.Post("/register", h.HandleRegister)
		pr.Post("/login", h.HandleLogin)
	})

	r.With(mw.RequireAuth).Get("/me", h.ServeMe)
	return r
}
