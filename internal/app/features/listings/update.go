// internal/app/features/listings/update.go
package listings

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/dalemusser/tradehub/internal/app/features/shared/listingview"
	listingstore "github.com/dalemusser/tradehub/internal/app/store/listings"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/metrics"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	errListingNotFound = apierr.NotFound("listing not found")
	errListingGone     = apierr.Conflict("listing has been deleted")
)

// HandleUpdate applies a partial JSON update from the seller.
// PUT /api/listings/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthenticated("access token required"))
		return
	}
	id, ok := listingID(r)
	if !ok {
		apierr.Write(w, r, h.Log, errListingNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// ownership is decided before the body is looked at
	cur, err := h.Listings.GetByID(ctx, id)
	if errors.Is(err, listingstore.ErrNotFound) {
		apierr.Write(w, r, h.Log, errListingNotFound)
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	if cur.Seller != u.ID {
		h.deny(ctx, w, r, u.ID, id, "update")
		return
	}
	if cur.Status == models.ListingDeleted {
		apierr.Write(w, r, h.Log, errListingGone)
		return
	}

	var body listingBody
	if err := apierr.DecodeJSON(w, r, maxJSONBody, &body); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	next := cur
	body.apply(&next)

	if body.Images != nil {
		attached := make(map[string]bool, len(cur.Images))
		for _, img := range cur.Images {
			attached[img.URL] = true
		}
		allowed := func(url string) bool { return attached[url] }
		if err := h.checkImages(next.Images, allowed, "Only images already attached to this listing can be kept."); err != nil {
			apierr.Write(w, r, h.Log, err)
			return
		}
	}

	if err := h.validate(ctx, &next); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	sent := body.sent()
	updated, err := h.Listings.Update(ctx, id, u.ID, next, sent)
	if err != nil {
		h.writeMutationErr(ctx, w, r, u.ID, id, "update", err)
		return
	}

	h.discardUnreferenced(ctx, droppedUploads(cur.Images, updated.Images, h.Uploads.Owns))
	h.AuditLog.ListingUpdated(ctx, r, u.ID, id, strings.Join(sent, ","))
	metrics.RecordListing(metrics.ListingUpdated)

	v, err := listingview.One(ctx, h.Users, updated)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, v)
}

// deny records and answers a write attempted by someone other than the seller.
func (h *Handler) deny(ctx context.Context, w http.ResponseWriter, r *http.Request, userID, listingID primitive.ObjectID, action string) {
	h.AuditLog.ListingDenied(ctx, r, userID, listingID, action)
	apierr.Write(w, r, h.Log, apierr.Forbidden("you can only "+action+" your own listings"))
}

// writeMutationErr maps listing store errors from a guarded write.
func (h *Handler) writeMutationErr(ctx context.Context, w http.ResponseWriter, r *http.Request, userID, listingID primitive.ObjectID, action string, err error) {
	switch {
	case errors.Is(err, listingstore.ErrNotFound):
		apierr.Write(w, r, h.Log, errListingNotFound)
	case errors.Is(err, listingstore.ErrNotOwner):
		h.deny(ctx, w, r, userID, listingID, action)
	case errors.Is(err, listingstore.ErrDeleted):
		apierr.Write(w, r, h.Log, errListingGone)
	default:
		apierr.Write(w, r, h.Log, err)
	}
}

// sent lists the json names of the fields present in the body.
func (b listingBody) sent() []string {
	var out []string
	add := func(present bool, name string) {
		if present {
			out = append(out, name)
		}
	}
	add(b.Title != nil, listingstore.FieldTitle)
	add(b.Description != nil, listingstore.FieldDescription)
	add(b.Price != nil, listingstore.FieldPrice)
	add(b.Category != nil, listingstore.FieldCategory)
	add(b.Subcategory != nil, listingstore.FieldSubcategory)
	add(b.Condition != nil, listingstore.FieldCondition)
	add(b.Location != nil, listingstore.FieldLocation)
	add(b.Attributes != nil, listingstore.FieldAttributes)
	add(b.Tags != nil, listingstore.FieldTags)
	add(b.IsUrgent != nil, listingstore.FieldIsUrgent)
	add(b.Images != nil, listingstore.FieldImages)
	add(b.Status != nil, listingstore.FieldStatus)
	sort.Strings(out)
	return out
}

// droppedUploads returns stored image URLs present in before but not after.
func droppedUploads(before, after []models.Image, owned func(string) bool) []string {
	kept := make(map[string]bool, len(after))
	for _, img := range after {
		kept[img.URL] = true
	}
	var out []string
	for _, img := range before {
		if !kept[img.URL] && owned(img.URL) {
			out = append(out, img.URL)
		}
	}
	return out
}
