// internal/app/features/messages/list.go
package messages

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/tradehub/internal/app/features/shared/listingview"
	messagestore "github.com/dalemusser/tradehub/internal/app/store/messages"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/paging"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listResponse struct {
	Messages   []listingview.Message `json:"messages"`
	Pagination paging.Meta           `json:"pagination"`
}

// ServeList returns the caller's conversations, newest first. Optional
// "listing" and "with" parameters narrow to one listing or one other user;
// malformed ids are ignored.
// GET /api/messages
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthenticated("access token required"))
		return
	}

	f := messagestore.ListFilter{Participant: u.ID}
	if id, err := primitive.ObjectIDFromHex(strings.TrimSpace(query.Get(r, "listing"))); err == nil {
		f.Listing = &id
	}
	if id, err := primitive.ObjectIDFromHex(strings.TrimSpace(query.Get(r, "with"))); err == nil {
		f.With = &id
	}
	page := paging.FromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msgs, err := h.Messages.List(ctx, f, page.Skip(), int64(page.Limit))
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	total, err := h.Messages.Count(ctx, f)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	views, err := listingview.Messages(ctx, h.Users, msgs)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, listResponse{Messages: views, Pagination: paging.NewMeta(page, total)})
}
