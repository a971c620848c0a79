// internal/app/features/categories/routes.go
package categories

import "github.com/go-chi/chi/v5"

// Routes mounts under /api/categories.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/{slug}", h.ServeOne)
	return r
}
