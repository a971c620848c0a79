// internal/app/features/login/me.go
package login

import (
	"net/http"

	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
)

// ServeMe returns the authenticated user's own profile.
// GET /api/auth/me
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthenticated("access token required"))
		return
	}
	apierr.JSON(w, http.StatusOK, u)
}
