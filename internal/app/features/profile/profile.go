// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/tradehub/internal/app/store/users"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tradehub/internal/app/system/inputval"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
	"github.com/dalemusser/tradehub/internal/domain/models"
)

const maxBody = 64 << 10

// profileInput carries the editable profile fields. Omitted fields are left
// unchanged; an empty string clears phone or avatar.
type profileInput struct {
	Phone    *string          `json:"phone" validate:"omitempty,max=30" label:"Phone"`
	Avatar   *string          `json:"avatar" validate:"omitempty,max=500" label:"Avatar"`
	Location *models.Location `json:"location"`
}

// HandleUpdateProfile edits the caller's phone, avatar and location.
// PUT /api/users/me
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthenticated("access token required"))
		return
	}

	var in profileInput
	if err := apierr.DecodeJSON(w, r, maxBody, &in); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.Write(w, r, h.Log, apierr.BadRequest(res.First(), res.Fields()))
		return
	}

	upd := userstore.ProfileUpdate{}
	if in.Phone != nil {
		p := strings.TrimSpace(*in.Phone)
		upd.Phone = &p
	}
	if in.Avatar != nil {
		a := strings.TrimSpace(*in.Avatar)
		if a != "" && !isWebURL(a) && !strings.HasPrefix(a, "/") {
			apierr.Write(w, r, h.Log, apierr.BadRequest("Avatar must be a URL.", map[string]string{"avatar": "Avatar must be a URL."}))
			return
		}
		upd.Avatar = &a
	}
	if in.Location != nil {
		loc := models.Location{
			City:    htmlsanitize.StripTags(in.Location.City),
			State:   htmlsanitize.StripTags(in.Location.State),
			Country: htmlsanitize.StripTags(in.Location.Country),
		}
		upd.Location = &loc
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Users.UpdateProfile(ctx, u.ID, upd)
	if errors.Is(err, userstore.ErrNotFound) {
		apierr.Write(w, r, h.Log, apierr.NotFound("user not found"))
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	h.AuditLog.ProfileUpdated(ctx, r, u.ID)
	apierr.JSON(w, http.StatusOK, updated)
}
