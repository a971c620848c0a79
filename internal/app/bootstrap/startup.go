// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/tradehub/internal/app/resources"
	categorystore "github.com/dalemusser/tradehub/internal/app/store/categories"
	"github.com/dalemusser/tradehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.DBTimeoutShort,
		Medium: appCfg.DBTimeoutMedium,
	})
	cur := timeouts.Current()
	logger.Info("database timeouts",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long),
	)

	if appCfg.SeedCategories {
		if err := seedCategories(ctx, deps, logger); err != nil {
			return err
		}
	}
	return nil
}

// seedCategories loads the embedded catalog into an empty categories
// collection. Existing categories are never touched.
func seedCategories(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	cats, err := resources.DefaultCategories()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	seeded, err := categorystore.New(deps.MongoDatabase).SeedIfEmpty(ctx, cats)
	if err != nil {
		logger.Error("seed categories failed", zap.Error(err))
		return err
	}
	if seeded {
		logger.Info("seeded category catalog", zap.Int("categories", len(cats)))
	}
	return nil
}
