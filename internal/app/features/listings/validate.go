// internal/app/features/listings/validate.go
package listings

import (
	"context"
	"errors"
	"fmt"

	categorystore "github.com/dalemusser/tradehub/internal/app/store/categories"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/catalog"
	"github.com/dalemusser/tradehub/internal/app/system/uploads"
	"github.com/dalemusser/tradehub/internal/domain/models"
)

// validate checks l as it is about to be stored and replaces its attribute
// bag with the cleaned one. Client mistakes come back as *apierr.Error.
func (h *Handler) validate(ctx context.Context, l *models.Listing) error {
	if res := check(*l); res.HasErrors() {
		return apierr.BadRequest(res.First(), res.Fields())
	}

	cat, err := h.Categories.GetBySlug(ctx, l.Category)
	if errors.Is(err, categorystore.ErrNotFound) {
		msg := fmt.Sprintf("Unknown category %q.", l.Category)
		return apierr.BadRequest(msg, map[string]string{"category": msg})
	}
	if err != nil {
		return err
	}

	clean, fields := catalog.Validate(cat, l.Subcategory, l.Attributes, catalog.Options{
		EnforceRequired: h.Options.EnforceRequired,
	})
	if len(fields) > 0 {
		return badFields(fields)
	}
	l.Attributes = clean
	return nil
}

// checkImages enforces the image count limit and that every URL is
// acceptable to allowed.
func (h *Handler) checkImages(imgs []models.Image, allowed func(string) bool, msg string) error {
	if limit := h.Uploads.Limits().MaxFiles; len(imgs) > limit {
		m := fmt.Sprintf("At most %d images are allowed.", limit)
		return apierr.BadRequest(m, map[string]string{"images": m})
	}
	for _, img := range imgs {
		if img.URL == "" || !allowed(img.URL) {
			return apierr.BadRequest(msg, map[string]string{"images": msg})
		}
	}
	return nil
}

// uploadError maps upload failures to client errors.
func (h *Handler) uploadError(err error) error {
	lim := h.Uploads.Limits()
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		return apierr.TooLarge("Each image must be at most " + sizeLabel(lim.MaxBytes) + ".")
	case errors.Is(err, uploads.ErrTooMany):
		m := fmt.Sprintf("At most %d images are allowed.", lim.MaxFiles)
		return apierr.BadRequest(m, map[string]string{"images": m})
	case errors.Is(err, uploads.ErrNotImage):
		m := "Images must be JPEG, PNG, GIF or WebP."
		return apierr.BadRequest(m, map[string]string{"images": m})
	}
	return err
}

func sizeLabel(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
