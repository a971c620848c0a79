// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Environment name (dev, prod)
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens and passwords
	JWTSecret  string        // HS256 signing secret (must be strong in production)
	JWTTTL     time.Duration // token lifetime
	BcryptCost int

	// Listing image uploads
	UploadPath     string // local directory files are written to
	UploadURL      string // URL prefix files are served under
	UploadMaxFiles int
	UploadMaxBytes int64

	// Browser clients allowed to call the API. Empty allows any origin.
	CORSOrigins []string

	// Listings
	FeaturedLimit             int
	EnforceRequiredAttributes bool
	SeedCategories            bool

	// Login and register attempts per client IP per minute
	AuthRatePerMinute int

	// TrustProxy takes the client IP from X-Real-IP/X-Forwarded-For. Only
	// enable it when every request arrives through a proxy that sets them.
	TrustProxy bool

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLog string

	// MongoDB operation timeouts; zero keeps the built-in defaults
	DBTimeoutShort  time.Duration
	DBTimeoutMedium time.Duration
}
