// internal/app/features/listings/create.go
package listings

import (
	"context"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/dalemusser/tradehub/internal/app/features/shared/listingview"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/metrics"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate publishes a new listing owned by the caller. It accepts a
// multipart form with image files or a JSON body with image URLs.
// POST /api/listings
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthenticated("access token required"))
		return
	}

	var (
		body  listingBody
		files []*multipart.FileHeader
		err   error
	)
	if isMultipart(r) {
		lim := h.Uploads.Limits()
		body, files, err = decodeForm(w, r, int64(lim.MaxFiles)*lim.MaxBytes+1<<20)
	} else {
		err = apierr.DecodeJSON(w, r, maxJSONBody, &body)
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	// status is not settable at creation
	body.Status = nil
	var l models.Listing
	body.apply(&l)
	l.Seller = u.ID

	if err := h.checkImages(l.Images, h.imageURLAllowed, "Image URLs must be http(s) links; upload files as multipart/form-data."); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.validate(ctx, &l); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	// files are written only once the rest of the listing is known good
	var stored []string
	if len(files) > 0 {
		saved, err := h.Uploads.SaveMultipart(files)
		if err != nil {
			metrics.RecordUploads("rejected", len(files))
			apierr.Write(w, r, h.Log, h.uploadError(err))
			return
		}
		metrics.RecordUploads("stored", len(saved))
		for _, f := range saved {
			l.Images = append(l.Images, models.Image{URL: f.URL})
			stored = append(stored, f.URL)
		}
	}

	created, err := h.Listings.Create(ctx, l)
	if err != nil {
		h.discard(stored)
		apierr.Write(w, r, h.Log, err)
		return
	}

	h.AuditLog.ListingCreated(ctx, r, u.ID, created.ID, created.Title)
	metrics.RecordListing(metrics.ListingCreated)
	h.Log.Info("listing created",
		zap.String("listing_id", created.ID.Hex()),
		zap.String("seller", u.ID.Hex()),
		zap.Int("images", len(created.Images)),
	)

	v, err := listingview.One(ctx, h.Users, created)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusCreated, v)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// imageURLAllowed accepts external links only. Stored uploads can only be
// attached by uploading them in the same request.
func (h *Handler) imageURLAllowed(url string) bool {
	return isWebURL(url)
}

// discard removes uploaded files written by this request.
func (h *Handler) discard(urls []string) {
	for _, u := range urls {
		if err := h.Uploads.Remove(u); err != nil {
			h.Log.Warn("remove upload", zap.String("url", u), zap.Error(err))
		}
	}
}

// discardUnreferenced removes uploaded files that no listing references
// any more. Files still used elsewhere are left alone.
func (h *Handler) discardUnreferenced(ctx context.Context, urls []string) {
	for _, u := range urls {
		inUse, err := h.Listings.ImageInUse(ctx, u)
		if err != nil {
			h.Log.Warn("check upload references", zap.String("url", u), zap.Error(err))
			continue
		}
		if inUse {
			continue
		}
		if err := h.Uploads.Remove(u); err != nil {
			h.Log.Warn("remove upload", zap.String("url", u), zap.Error(err))
		}
	}
}
