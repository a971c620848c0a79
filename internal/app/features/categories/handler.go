// internal/app/features/categories/handler.go
package categories

import (
	"context"
	"errors"
	"net/http"

	categorystore "github.com/dalemusser/tradehub/internal/app/store/categories"
	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the read-only category catalog.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Categories *categorystore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Categories: categorystore.New(db),
	}
}

// ServeList returns every category.
// GET /api/categories
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, cats)
}

// ServeOne returns one category with its attribute definitions.
// GET /api/categories/{slug}
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cat, err := h.Categories.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, categorystore.ErrNotFound) {
		apierr.Write(w, r, h.Log, apierr.NotFound("category not found"))
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, cat)
}
