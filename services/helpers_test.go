package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var admin = models.Principal{UserID: 1, Email: "admin@example.com", Role: models.RoleAdmin, IsAdmin: true}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Order{}, &models.OrderItem{}, &models.User{}))
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uint, name, price string, stock, threshold int) models.Product {
	t.Helper()
	product := models.Product{
		Name:              name,
		Price:             decimal.RequireFromString(price),
		QuantityInStock:   stock,
		LowStockThreshold: threshold,
		CategoryID:        categoryID,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) models.Product {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, id).Error)
	return product
}

func countOrders(t *testing.T, db *gorm.DB) (orders, items int64) {
	t.Helper()
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	return orders, items
}

func guestOrder(lines ...models.OrderItem) *models.Order {
	return &models.Order{GuestName: "Jane Guest", GuestEmail: "jane@example.com", OrderItems: lines}
}

func line(productID uint, quantity int) models.OrderItem {
	return models.OrderItem{ProductID: productID, Quantity: quantity}
}

var bg = context.Background()
