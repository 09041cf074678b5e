package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/buttery-backend/pkg/config"
	"github.com/angelmondragon/buttery-backend/pkg/db"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date when running in dev with auto-migrate enabled.
// Postgres runs the embedded goose migrations; the sqlite dev driver uses GORM's AutoMigrate
// because the SQL files are Postgres-specific.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "sqlite": client.IsSQLite()})

	if client.IsSQLite() {
		logg.Info(ctx, "running gorm automigrate (dev sqlite)")
		if err := AutoMigrateModels(ctx, client); err != nil {
			return err
		}
		return SeedSettings(ctx, client)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	logg.Info(ctx, "running goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}

// AutoMigrateModels creates the schema from the GORM models.
func AutoMigrateModels(ctx context.Context, client *db.Client) error {
	err := client.DB().WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Settings{},
		&models.Ingredient{},
		&models.MenuItem{},
		&models.MenuItemIngredient{},
		&models.Cart{},
		&models.CartItem{},
		&models.CartItemIngredient{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemIngredient{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// SeedSettings inserts the singleton settings row if it does not exist.
func SeedSettings(ctx context.Context, client *db.Client) error {
	row := models.Settings{ID: models.SettingsID}
	if err := client.DB().WithContext(ctx).FirstOrCreate(&row, models.Settings{ID: models.SettingsID}).Error; err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}
