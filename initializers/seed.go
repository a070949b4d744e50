package initializers

import (
	"context"
	"fmt"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/Kariqs/smart-inventory/services"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedProduct struct {
	name        string
	description string
	price       string
	quantity    int
	threshold   int
	category    string
}

var seedCategories = []models.Category{
	{Name: "Electronics", Description: "Electronic devices and accessories"},
	{Name: "Clothing", Description: "Apparel and fashion items"},
	{Name: "Books", Description: "Books and educational materials"},
	{Name: "Home & Garden", Description: "Home improvement and garden supplies"},
}

var seedProducts = []seedProduct{
	{"Laptop", "High-performance laptop", "999.99", 15, 5, "Electronics"},
	{"Smartphone", "Latest model smartphone", "699.99", 25, 8, "Electronics"},
	{"T-Shirt", "Cotton t-shirt", "19.99", 100, 20, "Clothing"},
	{"Jeans", "Denim jeans", "49.99", 50, 10, "Clothing"},
	{"Programming Book", "Learn programming fundamentals", "39.99", 30, 5, "Books"},
	{"Garden Tools Set", "Complete garden tools set", "79.99", 20, 4, "Home & Garden"},
}

// SeedCatalog inserts the starter categories and products into an empty
// catalog. A catalog that already has categories is left alone.
func SeedCatalog(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		logger.Debug().Int64("categories", count).Msg("catalog already seeded")
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryIDs := make(map[string]uint, len(seedCategories))
		for _, c := range seedCategories {
			category := c
			if err := tx.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to seed category %s: %w", category.Name, err)
			}
			categoryIDs[category.Name] = category.ID
		}

		for _, p := range seedProducts {
			product := models.Product{
				Name:              p.name,
				Description:       p.description,
				Price:             decimal.RequireFromString(p.price),
				QuantityInStock:   p.quantity,
				LowStockThreshold: p.threshold,
				CategoryID:        categoryIDs[p.category],
			}
			if err := tx.Create(&product).Error; err != nil {
				return fmt.Errorf("failed to seed product %s: %w", product.Name, err)
			}
		}

		logger.Info().Int("categories", len(seedCategories)).Int("products", len(seedProducts)).Msg("catalog seeded")
		return nil
	})
}

// SeedDatabase seeds the catalog and makes sure the configured admin account
// exists.
func SeedDatabase(ctx context.Context, db *gorm.DB, accounts *services.AccountService, cfg *Config, logger zerolog.Logger) error {
	if !cfg.Seed.Enabled {
		return nil
	}
	if err := SeedCatalog(ctx, db, logger); err != nil {
		return err
	}

	if cfg.Seed.AdminPassword == "" {
		logger.Warn().Msg("ADMIN_PASSWORD not set, skipping admin account seeding")
		return nil
	}
	if err := accounts.EnsureAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, "System Administrator"); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}
