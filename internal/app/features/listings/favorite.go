// internal/app/features/listings/favorite.go
package listings

import (
	"context"
	"errors"
	"net/http"

	listingstore "github.com/dalemusser/tradehub/internal/app/store/listings"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/metrics"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
)

type favoriteResponse struct {
	IsFavorite     bool `json:"isFavorite"`
	FavoritesCount int  `json:"favoritesCount"`
}

// HandleFavorite adds the listing to the caller's favorites, or removes it
// if it is already there.
// POST /api/listings/{id}/favorite
func (h *Handler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fav, count, err := h.Listings.ToggleFavorite(ctx, id, u.ID)
	if errors.Is(err, listingstore.ErrNotFound) {
		apierr.Write(w, r, h.Log, errListingNotFound)
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	if fav {
		metrics.RecordListing(metrics.ListingFavorited)
	} else {
		metrics.RecordListing(metrics.ListingUnfavorited)
	}
	apierr.JSON(w, http.StatusOK, favoriteResponse{IsFavorite: fav, FavoritesCount: count})
}
