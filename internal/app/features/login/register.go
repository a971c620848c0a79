// internal/app/features/login/register.go
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
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.uber.org/zap"
)

type registerInput struct {
	Username string           `json:"username" validate:"required,username" label:"Username"`
	Email    string           `json:"email" validate:"required,email,max=254" label:"Email"`
	Password string           `json:"password" validate:"required,min=6,max=72" label:"Password"`
	Phone    string           `json:"phone" validate:"max=30" label:"Phone"`
	Location *models.Location `json:"location"`
}

const msgTaken = "A user with this email or username already exists."

// HandleRegister creates an account and returns a token for it.
// POST /api/auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := apierr.DecodeJSON(w, r, maxBody, &in); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if res := inputval.Validate(in); res.HasErrors() {
		metrics.RecordAuth("register", false)
		apierr.Write(w, r, h.Log, apierr.BadRequest(res.First(), res.Fields()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	taken, err := h.Users.Taken(ctx, in.Email, in.Username)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	if taken {
		h.rejectTaken(w, r, in.Email)
		return
	}

	hash, err := auth.HashPassword(in.Password, h.BcryptCost)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	u := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
	}
	if in.Location != nil {
		u.Location = *in.Location
	}

	u, err = h.Users.Create(ctx, u)
	if errors.Is(err, userstore.ErrDuplicate) {
		// lost a race with a concurrent registration
		h.rejectTaken(w, r, in.Email)
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	h.AuditLog.Registered(ctx, r, u.ID, u.Username)
	metrics.RecordAuth("register", true)
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))

	apierr.JSON(w, http.StatusCreated, authResponse{Token: token, User: u})
}

func (h *Handler) rejectTaken(w http.ResponseWriter, r *http.Request, email string) {
	h.AuditLog.RegisterFailed(r.Context(), r, email, "email or username taken")
	metrics.RecordAuth("register", false)
	apierr.Write(w, r, h.Log, apierr.BadRequest(msgTaken, nil))
}
