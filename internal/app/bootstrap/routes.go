// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	categoriesfeature "github.com/dalemusser/tradehub/internal/app/features/categories"
	errorsfeature "github.com/dalemusser/tradehub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/tradehub/internal/app/features/health"
	listingsfeature "github.com/dalemusser/tradehub/internal/app/features/listings"
	loginfeature "github.com/dalemusser/tradehub/internal/app/features/login"
	messagesfeature "github.com/dalemusser/tradehub/internal/app/features/messages"
	profilefeature "github.com/dalemusser/tradehub/internal/app/features/profile"
	"github.com/dalemusser/tradehub/internal/app/store/audit"
	userstore "github.com/dalemusser/tradehub/internal/app/store/users"
	"github.com/dalemusser/tradehub/internal/app/system/auditlog"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/metrics"
	"github.com/dalemusser/tradehub/internal/app/system/uploads"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// TradeHub serves a JSON API under /api, listing images under the upload
// URL prefix, and /health and /metrics for operators.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	up, err := uploads.NewOS(appCfg.UploadPath, uploads.Config{
		MaxFiles:  appCfg.UploadMaxFiles,
		MaxBytes:  appCfg.UploadMaxBytes,
		URLPrefix: appCfg.UploadURL,
	})
	if err != nil {
		logger.Error("upload store init failed", zap.Error(err))
		return nil, err
	}
	prefix := up.Limits().URLPrefix

	tokens := auth.NewIssuer(appCfg.JWTSecret, appCfg.JWTTTL)
	mw := auth.NewMiddleware(tokens, userstore.NewFetcher(db), logger)

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:    appCfg.AuditLog,
		Listing: appCfg.AuditLog,
	})

	r := chi.NewRouter()
	if appCfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(cors.Handler(corsOptions(appCfg.CORSOrigins)))
	r.Use(metrics.Middleware)

	// Operator endpoints
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))
	r.Handle("/metrics", metrics.Handler())

	// Listing images
	r.Handle(prefix+"/*", http.StripPrefix(prefix, up.Handler()))

	r.Route("/api", func(api chi.Router) {
		loginHandler := loginfeature.NewHandler(db, tokens, appCfg.BcryptCost, auditLogger, logger)
		api.Mount("/auth", loginfeature.Routes(loginHandler, mw, deps.AuthLimiter))

		api.Mount("/categories", categoriesfeature.Routes(categoriesfeature.NewHandler(db, logger)))

		listingsHandler := listingsfeature.NewHandler(db, up, auditLogger, listingsfeature.Options{
			FeaturedLimit:   int64(appCfg.FeaturedLimit),
			EnforceRequired: appCfg.EnforceRequiredAttributes,
		}, logger)
		api.Mount("/listings", listingsfeature.Routes(listingsHandler, mw))

		api.Mount("/users", profilefeature.Routes(profilefeature.NewHandler(db, auditLogger, logger), mw))

		api.Mount("/messages", messagesfeature.Routes(messagesfeature.NewHandler(db, logger), mw))
	})

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}

// corsOptions allows any origin when origins is empty. Credentials are not
// needed because clients authenticate with a bearer token.
func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}
}
