package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/yardops-backend/pkg/config"
	"github.com/angelmondragon/yardops-backend/pkg/db"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at boot, but only in dev with
// YARDOPS_AUTO_MIGRATE set. Other environments run cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("dev auto-migrate: %w", err)
	}
	if v, err := Version(sqlDB); err == nil {
		ctx = logg.WithField(ctx, "schema_version", v)
	}
	logg.Info(ctx, "migrations.auto_applied")
	return nil
}
