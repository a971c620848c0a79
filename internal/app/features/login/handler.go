// internal/app/features/login/handler.go
package login

import (
	userstore "github.com/dalemusser/tradehub/internal/app/store/users"
	"github.com/dalemusser/tradehub/internal/app/system/auditlog"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxBody bounds register and login request bodies.
const maxBody = 64 << 10

// Handler serves registration, login and the current-user profile.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Users      *userstore.Store
	Tokens     *auth.Issuer
	AuditLog   *auditlog.Logger
	BcryptCost int
}

func NewHandler(db *mongo.Database, tokens *auth.Issuer, bcryptCost int, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Users:      userstore.New(db),
		Tokens:     tokens,
		AuditLog:   audit,
		BcryptCost: bcryptCost,
	}
}

// authResponse is returned by register and login.
type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}
