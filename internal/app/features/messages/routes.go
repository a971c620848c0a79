// internal/app/features/messages/routes.go
package messages

import (
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/messages.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireAuth)
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleSend)
	return r
}
