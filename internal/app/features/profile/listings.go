// internal/app/features/profile/listings.go
package profile

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/tradehub/internal/app/features/shared/listingview"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
)

// ServeMyListings returns the caller's listings that are not deleted,
// including sold ones.
// GET /api/users/my-listings
func (h *Handler) ServeMyListings(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthenticated("access token required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Listings.BySeller(ctx, u.ID)
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

// ServeMyFavorites returns the listings the caller has favorited.
// GET /api/users/my-favorites
func (h *Handler) ServeMyFavorites(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthenticated("access token required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Listings.FavoritedBy(ctx, u.ID)
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

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
