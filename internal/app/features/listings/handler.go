// internal/app/features/listings/handler.go
package listings

import (
	"net/http"

	categorystore "github.com/dalemusser/tradehub/internal/app/store/categories"
	listingstore "github.com/dalemusser/tradehub/internal/app/store/listings"
	userstore "github.com/dalemusser/tradehub/internal/app/store/users"
	"github.com/dalemusser/tradehub/internal/app/system/auditlog"
	"github.com/dalemusser/tradehub/internal/app/system/uploads"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxJSONBody bounds JSON create and update bodies.
const maxJSONBody = 256 << 10

// DefaultFeaturedLimit is used when Options.FeaturedLimit is not positive.
const DefaultFeaturedLimit = 10

// Options carries the configurable behavior of the listings endpoints.
type Options struct {
	FeaturedLimit int64
	// EnforceRequired rejects listings that omit a required category attribute.
	EnforceRequired bool
}

// Handler serves browsing and the listing lifecycle.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Listings   *listingstore.Store
	Categories *categorystore.Store
	Users      *userstore.Store
	Uploads    *uploads.Store
	AuditLog   *auditlog.Logger
	Options    Options
}

func NewHandler(db *mongo.Database, up *uploads.Store, audit *auditlog.Logger, opts Options, logger *zap.Logger) *Handler {
	if opts.FeaturedLimit <= 0 {
		opts.FeaturedLimit = DefaultFeaturedLimit
	}
	return &Handler{
		DB:         db,
		Log:        logger,
		Listings:   listingstore.New(db),
		Categories: categorystore.New(db),
		Users:      userstore.New(db),
		Uploads:    up,
		AuditLog:   audit,
		Options:    opts,
	}
}

// listingID reads the {id} route parameter. A malformed id is reported the
// same way as an unknown one.
func listingID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}
