// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/tradehub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// envPrefix is the prefix of every app-level environment variable.
const envPrefix = "TRADEHUB"

// defaultJWTSecret is only acceptable outside production.
const defaultJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for TradeHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: TRADEHUB_MONGO_URI, TRADEHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "tradehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Auth
	{Name: "jwt_secret", Default: defaultJWTSecret, Desc: "HS256 token signing secret (must be strong in production)"},
	{Name: "jwt_ttl", Default: "168h", Desc: "Bearer token lifetime (e.g., 168h, 24h)"},
	{Name: "bcrypt_cost", Default: 10, Desc: "bcrypt cost for password hashing (4-31)"},
	{Name: "auth_rate_per_minute", Default: 20, Desc: "Login/register attempts allowed per client IP per minute"},

	// Uploads
	{Name: "upload_path", Default: "./uploads", Desc: "Directory listing images are stored in"},
	{Name: "upload_url", Default: "/uploads", Desc: "URL prefix listing images are served under"},
	{Name: "upload_max_files", Default: 10, Desc: "Maximum images per listing"},
	{Name: "upload_max_bytes", Default: 5 << 20, Desc: "Maximum size of one image in bytes"},

	// HTTP
	{Name: "trust_proxy", Default: false, Desc: "Read the client IP from proxy headers (enable only behind a trusted proxy)"},
	{Name: "cors_origins", Default: "", Desc: "Comma-separated list of allowed browser origins (blank allows any)"},

	// Listings
	{Name: "featured_limit", Default: 10, Desc: "Number of listings returned by /api/listings/featured"},
	{Name: "enforce_required_attributes", Default: true, Desc: "Reject listings missing a required category attribute"},
	{Name: "seed_categories", Default: true, Desc: "Insert the built-in category catalog when none exist"},

	// Audit logging
	{Name: "audit_log", Default: "all", Desc: "Audit event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "db_timeout_short", Default: "", Desc: "Timeout for single-document MongoDB operations (e.g., 5s)"},
	{Name: "db_timeout_medium", Default: "", Desc: "Timeout for MongoDB list and count operations (e.g., 10s)"},
}

// legacyEnv maps bare environment variables used by earlier deployments to
// the keys that replace them. A legacy value only applies when the new
// variable is unset.
var legacyEnv = map[string]string{
	"MONGODB_URI": envPrefix + "_MONGO_URI",
	"JWT_SECRET":  envPrefix + "_JWT_SECRET",
	"PORT":        "WAFFLE_HTTP_PORT",
}

// applyLegacyEnv copies legacy environment variables onto their
// replacements and returns the names it applied.
func applyLegacyEnv() []string {
	var applied []string
	for legacy, current := range legacyEnv {
		v, ok := os.LookupEnv(legacy)
		if !ok || v == "" {
			continue
		}
		if _, set := os.LookupEnv(current); set {
			continue
		}
		if err := os.Setenv(current, v); err == nil {
			applied = append(applied, legacy)
		}
	}
	return applied
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, TRADEHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	for _, name := range applyLegacyEnv() {
		logger.Info("using legacy environment variable", zap.String("name", name))
	}

	coreCfg, appValues, err := config.LoadWithAppConfig(logger, envPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:         appValues.String("jwt_secret"),
		JWTTTL:            appValues.Duration("jwt_ttl", 7*24*time.Hour),
		BcryptCost:        appValues.Int("bcrypt_cost"),
		AuthRatePerMinute: appValues.Int("auth_rate_per_minute"),

		UploadPath:     appValues.String("upload_path"),
		UploadURL:      appValues.String("upload_url"),
		UploadMaxFiles: appValues.Int("upload_max_files"),
		UploadMaxBytes: int64(appValues.Int("upload_max_bytes")),

		CORSOrigins: splitList(appValues.String("cors_origins")),
		TrustProxy:  appValues.Bool("trust_proxy"),

		FeaturedLimit:             appValues.Int("featured_limit"),
		EnforceRequiredAttributes: appValues.Bool("enforce_required_attributes"),
		SeedCategories:            appValues.Bool("seed_categories"),

		AuditLog: strings.ToLower(strings.TrimSpace(appValues.String("audit_log"))),

		DBTimeoutShort:  appValues.Duration("db_timeout_short", 0),
		DBTimeoutMedium: appValues.Duration("db_timeout_medium", 0),
	}

	return coreCfg, appCfg, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// TradeHub validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect, and refuses to run in production
// with the development JWT secret.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

// validateApp holds the checks that do not need a logger.
func validateApp(env string, appCfg AppConfig) error {
	var problems []error

	if appCfg.JWTSecret == "" {
		problems = append(problems, errors.New("jwt_secret must be set"))
	} else if env == "prod" && appCfg.JWTSecret == defaultJWTSecret {
		problems = append(problems, errors.New("jwt_secret must be changed from the default in prod"))
	}
	if appCfg.JWTTTL <= 0 {
		problems = append(problems, errors.New("jwt_ttl must be positive"))
	}
	if appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if appCfg.AuthRatePerMinute < 0 {
		problems = append(problems, errors.New("auth_rate_per_minute must not be negative"))
	}
	if appCfg.UploadMaxFiles <= 0 {
		problems = append(problems, errors.New("upload_max_files must be greater than 0"))
	}
	if appCfg.UploadMaxBytes <= 0 {
		problems = append(problems, errors.New("upload_max_bytes must be greater than 0"))
	}
	switch appCfg.AuditLog {
	case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off, "":
	default:
		problems = append(problems, fmt.Errorf("audit_log must be one of all, db, log, off (got %q)", appCfg.AuditLog))
	}

	return errors.Join(problems...)
}
