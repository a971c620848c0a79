// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/tradehub/internal/app/store/users"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/inputval"
	"github.com/dalemusser/tradehub/internal/app/system/metrics"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
)

type loginInput struct {
	Email    string `json:"email" validate:"required" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// Unknown email and wrong password get the same answer.
var errInvalidCredentials = apierr.Unauthenticated("invalid credentials")

// HandleLogin exchanges email and password for a token.
// POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := apierr.DecodeJSON(w, r, maxBody, &in); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	in.Email = strings.TrimSpace(in.Email)

	if res := inputval.Validate(in); res.HasErrors() {
		apierr.Write(w, r, h.Log, apierr.BadRequest(res.First(), res.Fields()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, in.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, in.Email)
		metrics.RecordAuth("login", false)
		apierr.Write(w, r, h.Log, errInvalidCredentials)
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID)
		metrics.RecordAuth("login", false)
		apierr.Write(w, r, h.Log, errInvalidCredentials)
		return
	}

	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	h.AuditLog.LoginSuccess(ctx, r, u.ID)
	metrics.RecordAuth("login", true)

	apierr.JSON(w, http.StatusOK, authResponse{Token: token, User: u})
}
