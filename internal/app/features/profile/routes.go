// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/users. Every route needs a bearer token.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireAuth)
	r.Get("/my-listings", h.ServeMyListings)
	r.Get("/my-favorites", h.ServeMyFavorites)
	r.Put("/me", h.HandleUpdateProfile)
	return r
}
