// internal/app/features/listings/delete.go
package listings

import (
	"context"
	"net/http"

	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/metrics"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
)

// HandleDelete soft-deletes the caller's listing. Repeating it succeeds.
// DELETE /api/listings/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Listings.SoftDelete(ctx, id, u.ID); err != nil {
		h.writeMutationErr(ctx, w, r, u.ID, id, "delete", err)
		return
	}

	h.AuditLog.ListingDeleted(ctx, r, u.ID, id)
	metrics.RecordListing(metrics.ListingDeleted)
	apierr.JSON(w, http.StatusOK, map[string]string{"message": "Listing deleted successfully"})
}
