// internal/app/features/listings/browse.go
package listings

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/tradehub/internal/app/features/shared/listingview"
	listingstore "github.com/dalemusser/tradehub/internal/app/store/listings"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/listingquery"
	"github.com/dalemusser/tradehub/internal/app/system/metrics"
	"github.com/dalemusser/tradehub/internal/app/system/paging"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
)

type listResponse struct {
	Listings   []listingview.Listing `json:"listings"`
	Pagination paging.Meta           `json:"pagination"`
}

// ServeList searches active listings.
// GET /api/listings
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := listingquery.Parse(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := q.Filter()
	items, err := h.Listings.Search(ctx, filter, q.Sort(), q.Page.Skip(), int64(q.Page.Limit))
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	total, err := h.Listings.Count(ctx, filter)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	views, err := listingview.Listings(ctx, h.Users, items)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, listResponse{
		Listings:   views,
		Pagination: paging.NewMeta(q.Page, total),
	})
}

// ServeFeatured returns the newest featured active listings.
// GET /api/listings/featured
func (h *Handler) ServeFeatured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Listings.Featured(ctx, h.Options.FeaturedLimit)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	views, err := listingview.Listings(ctx, h.Users, items)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, views)
}

// ServeListing returns one listing and counts the view. Deleted listings
// are still returned, with their status.
// GET /api/listings/{id}
func (h *Handler) ServeListing(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.NotFound("listing not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	l, err := h.Listings.IncrementViews(ctx, id)
	if errors.Is(err, listingstore.ErrNotFound) {
		apierr.Write(w, r, h.Log, apierr.NotFound("listing not found"))
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	metrics.RecordListing(metrics.ListingViewed)

	v, err := listingview.One(ctx, h.Users, l)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, v)
}
