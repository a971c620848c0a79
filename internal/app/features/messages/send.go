// internal/app/features/messages/send.go
package messages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/dalemusser/tradehub/internal/app/features/shared/listingview"
	listingstore "github.com/dalemusser/tradehub/internal/app/store/listings"
	userstore "github.com/dalemusser/tradehub/internal/app/store/users"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tradehub/internal/app/system/inputval"
	"github.com/dalemusser/tradehub/internal/app/system/metrics"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sendInput struct {
	ListingID  string `json:"listingId" validate:"required,objectid" label:"Listing"`
	ReceiverID string `json:"receiverId" validate:"objectid" label:"Receiver"`
	Content    string `json:"content"`
}

// HandleSend stores a message about a listing. The receiver defaults to the
// listing's seller.
// POST /api/messages
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthenticated("access token required"))
		return
	}

	var in sendInput
	if err := apierr.DecodeJSON(w, r, maxBody, &in); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	res := inputval.Validate(in)
	content := htmlsanitize.StripTags(in.Content)
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		res.Add("content", "Message content is required.")
	case n > maxContentLen:
		res.Add("content", fmt.Sprintf("Message content must be at most %d characters.", maxContentLen))
	}
	if res.HasErrors() {
		apierr.Write(w, r, h.Log, apierr.BadRequest(res.First(), res.Fields()))
		return
	}

	listingID, _ := primitive.ObjectIDFromHex(in.ListingID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	l, err := h.Listings.GetByID(ctx, listingID)
	if errors.Is(err, listingstore.ErrNotFound) {
		apierr.Write(w, r, h.Log, apierr.NotFound("listing not found"))
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	receiver := l.Seller
	if in.ReceiverID != "" {
		receiver, _ = primitive.ObjectIDFromHex(in.ReceiverID)
	}
	if receiver == u.ID {
		apierr.Write(w, r, h.Log, apierr.BadRequest("You cannot send a message to yourself.", nil))
		return
	}
	if _, err := h.Users.GetByID(ctx, receiver); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apierr.Write(w, r, h.Log, apierr.NotFound("receiver not found"))
			return
		}
		apierr.Write(w, r, h.Log, err)
		return
	}

	m, err := h.Messages.Create(ctx, models.Message{
		Listing:  l.ID,
		Sender:   u.ID,
		Receiver: receiver,
		Content:  content,
	})
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	metrics.RecordMessage()

	views, err := listingview.Messages(ctx, h.Users, []models.Message{m})
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusCreated, views[0])
}
