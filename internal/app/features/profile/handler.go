// internal/app/features/profile/handler.go
package profile

import (
	listingstore "github.com/dalemusser/tradehub/internal/app/store/listings"
	userstore "github.com/dalemusser/tradehub/internal/app/store/users"
	"github.com/dalemusser/tradehub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the signed-in user's own views: profile edits and the
// listings they sell or have favorited.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Users    *userstore.Store
	Listings *listingstore.Store
	AuditLog *auditlog.Logger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Users:    userstore.New(db),
		Listings: listingstore.New(db),
		AuditLog: audit,
	}
}
