package initializers

import (
	"fmt"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func SyncDatabase(db *gorm.DB, logger zerolog.Logger) error {
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Order{}, &models.OrderItem{}, &models.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info().Msg("Database synced successfully.")
	return nil
}
