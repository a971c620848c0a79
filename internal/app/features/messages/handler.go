// internal/app/features/messages/handler.go
package messages

import (
	listingstore "github.com/dalemusser/tradehub/internal/app/store/listings"
	messagestore "github.com/dalemusser/tradehub/internal/app/store/messages"
	userstore "github.com/dalemusser/tradehub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxContentLen bounds a message body after trimming, in characters.
const maxContentLen = 2000

const maxBody = 32 << 10

// Handler serves buyer/seller messages about listings.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Messages *messagestore.Store
	Listings *listingstore.Store
	Users    *userstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Messages: messagestore.New(db),
		Listings: listingstore.New(db),
		Users:    userstore.New(db),
	}
}
