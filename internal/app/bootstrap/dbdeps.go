// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/tradehub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// AuthLimiter throttles register and login per client IP. Its janitor
	// goroutine is stopped in Shutdown.
	AuthLimiter *ratelimit.Limiter
}
