package initializers

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/Kariqs/smart-inventory/services"
	"github.com/Kariqs/smart-inventory/utils"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, SyncDatabase(db, zerolog.Nop()))
	return db
}

func TestSeedCatalog(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, SeedCatalog(ctx, db, zerolog.Nop()))
	require.NoError(t, SeedCatalog(ctx, db, zerolog.Nop()))

	var categories, products int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	assert.EqualValues(t, 4, categories)
	assert.EqualValues(t, 6, products)

	var laptop models.Product
	require.NoError(t, db.Where("name = ?", "Laptop").First(&laptop).Error)
	assert.Equal(t, "999.99", laptop.Price.StringFixed(2))
	assert.Equal(t, 15, laptop.QuantityInStock)
	assert.Equal(t, 5, laptop.LowStockThreshold)

	var electronics models.Category
	require.NoError(t, db.First(&electronics, laptop.CategoryID).Error)
	assert.Equal(t, "Electronics", electronics.Name)
}

func TestSeedDatabaseCreatesAdmin(t *testing.T) {
	db := newTestDB(t)
	accounts := services.NewAccountService(db, utils.NewLogMailer(zerolog.Nop()), services.AccountConfig{
		JWTSecret: "secret",
		TokenTTL:  time.Hour,
	}, zerolog.Nop())

	cfg := defaultConfig()
	cfg.Seed.AdminPassword = "Admin123!"

	require.NoError(t, SeedDatabase(context.Background(), db, accounts, cfg, zerolog.Nop()))

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@smartinventory.com").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.EmailConfirmed)
}

func TestSeedDatabaseDisabled(t *testing.T) {
	db := newTestDB(t)
	cfg := defaultConfig()
	cfg.Seed.Enabled = false

	require.NoError(t, SeedDatabase(context.Background(), db, nil, cfg, zerolog.Nop()))

	var categories int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	assert.Zero(t, categories)
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", "json", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Contains(t, buf.String(), `"service":"smart-inventory"`)
}
