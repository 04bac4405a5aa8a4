package db

import (
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by this service, parents first.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Wishlist{},
		&model.Item{},
		&model.Reservation{},
		&model.Contribution{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(database *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := database.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	// Postgres additionally rejects non-positive prices and amounts.
	if database.Dialector.Name() == "postgres" {
		if err := database.Exec(`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_items_price_positive') THEN
				ALTER TABLE items ADD CONSTRAINT chk_items_price_positive CHECK (price > 0);
			END IF;
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_contributions_amount_positive') THEN
				ALTER TABLE contributions ADD CONSTRAINT chk_contributions_amount_positive CHECK (amount > 0);
			END IF;
		END $$;`).Error; err != nil {
			logger.Error("Failed to add ledger check constraints", err)
			return err
		}
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
