// internal/app/features/listings/routes.go
package listings

import (
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/listings. Reads are public; writes need a bearer
// token.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/featured", h.ServeFeatured)
	r.Get("/{id}", h.ServeListing)

	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireAuth)
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/favorite", h.HandleFavorite)
	})
	return r
}
