package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrderService(t *testing.T, requireToken bool) (*OrderService, *models.Category) {
	t.Helper()
	db := newTestDB(t)
	category := seedCategory(t, db, "Electronics")
	return NewOrderService(db, zerolog.Nop(), requireToken), &category
}

func TestCreateOrderTotalsAndDecrementsStock(t *testing.T) {
	svc, category := newOrderService(t, false)
	laptop := seedProduct(t, svc.db, category.ID, "Laptop", "999.99", 15, 5)
	phone := seedProduct(t, svc.db, category.ID, "Smartphone", "699.99", 25, 8)

	order, err := svc.CreateOrder(bg, guestOrder(line(laptop.ID, 2), line(phone.ID, 3)))
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Equal(t, "4099.95", order.TotalAmount.StringFixed(2))
	assert.NotEmpty(t, order.CancelToken)
	assert.WithinDuration(t, time.Now().UTC(), order.OrderDate, time.Minute)
	assert.Equal(t, "999.99", order.OrderItems[0].UnitPrice.StringFixed(2))

	assert.Equal(t, 13, reloadProduct(t, svc.db, laptop.ID).QuantityInStock)
	assert.Equal(t, 22, reloadProduct(t, svc.db, phone.ID).QuantityInStock)
}

func TestCreateOrderScenario(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "10.00", 10, 2)

	order, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 2)))
	require.NoError(t, err)
	assert.Equal(t, "20.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, 8, reloadProduct(t, svc.db, product.ID).QuantityInStock)

	_, err = svc.CreateOrder(bg, guestOrder(line(product.ID, 15)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, []string{"Insufficient stock for product Widget. Available: 8, Requested: 15"}, ValidationMessages(err))
	assert.Equal(t, 8, reloadProduct(t, svc.db, product.ID).QuantityInStock)

	orders, _ := countOrders(t, svc.db)
	assert.EqualValues(t, 1, orders)
}

func TestCreateOrderInsufficientStockChangesNothing(t *testing.T) {
	svc, category := newOrderService(t, false)
	plenty := seedProduct(t, svc.db, category.ID, "Plenty", "5.00", 100, 1)
	scarce := seedProduct(t, svc.db, category.ID, "Scarce", "5.00", 1, 1)

	_, err := svc.CreateOrder(bg, guestOrder(line(plenty.ID, 10), line(scarce.ID, 2)))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 100, reloadProduct(t, svc.db, plenty.ID).QuantityInStock)
	assert.Equal(t, 1, reloadProduct(t, svc.db, scarce.ID).QuantityInStock)
	orders, items := countOrders(t, svc.db)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "1.00", 5, 1)

	_, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 1), line(9999, 1)))
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Contains(t, ValidationMessages(err), "Product with ID 9999 not found.")

	assert.Equal(t, 5, reloadProduct(t, svc.db, product.ID).QuantityInStock)
	orders, _ := countOrders(t, svc.db)
	assert.Zero(t, orders)
}

func TestCreateOrderSumsRepeatedProducts(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "3.00", 5, 1)

	_, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 3), line(product.ID, 3)))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	order, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 2), line(product.ID, 3)))
	require.NoError(t, err)
	assert.Equal(t, "15.00", order.TotalAmount.StringFixed(2))
	assert.Zero(t, reloadProduct(t, svc.db, product.ID).QuantityInStock)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "3.00", 5, 1)

	tests := []struct {
		name  string
		order *models.Order
		want  string
	}{
		{"no lines", guestOrder(), "At least one order item is required."},
		{"zero quantity", guestOrder(line(product.ID, 0)), "must be greater than 0"},
		{"missing name", &models.Order{GuestEmail: "a@example.com", OrderItems: []models.OrderItem{line(product.ID, 1)}}, "Guest name is required"},
		{"bad email", &models.Order{GuestName: "A", GuestEmail: "nope", OrderItems: []models.OrderItem{line(product.ID, 1)}}, "Guest email must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(bg, tt.order)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.Equal(t, 5, reloadProduct(t, svc.db, product.ID).QuantityInStock)
}

func TestCreateOrderTrimsGuestDetails(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "10.00", 10, 2)

	blank := guestOrder(line(product.ID, 1))
	blank.GuestName = "   "
	_, err := svc.CreateOrder(bg, blank)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 10, reloadProduct(t, svc.db, product.ID).QuantityInStock)

	padded := guestOrder(line(product.ID, 1))
	padded.GuestName = "  Jane Guest  "
	padded.GuestEmail = " jane@example.com "
	created, err := svc.CreateOrder(bg, padded)
	require.NoError(t, err)
	assert.Equal(t, "Jane Guest", created.GuestName)
	assert.Equal(t, "jane@example.com", created.GuestEmail)
}

func TestCreateOrderIgnoresCallerRecordFields(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "10.00", 10, 2)
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	order := guestOrder(line(product.ID, 3))
	order.ID = 500
	order.CreatedAt = past
	order.DeletedAt = gorm.DeletedAt{Time: past, Valid: true}
	order.OrderItems[0].ID = 900
	order.OrderItems[0].DeletedAt = gorm.DeletedAt{Time: past, Valid: true}

	created, err := svc.CreateOrder(bg, order)
	require.NoError(t, err)
	assert.NotEqual(t, uint(500), created.ID)

	found, err := svc.GetOrderByID(bg, created.ID)
	require.NoError(t, err)
	require.Len(t, found.OrderItems, 1)
	assert.NotEqual(t, uint(900), found.OrderItems[0].ID)
	assert.True(t, found.CreatedAt.After(past))

	require.NoError(t, svc.CancelOrder(bg, created.ID, "jane@example.com", ""))
	assert.Equal(t, 10, reloadProduct(t, svc.db, product.ID).QuantityInStock)
}

// bumpVersionOnce makes the next guarded product update inside a transaction
// see a version written by someone else.
func bumpVersionOnce(t *testing.T, db *gorm.DB, productID uint) {
	t.Helper()
	fired := false
	err := db.Callback().Update().Before("gorm:update").Register("test:bump_product_version", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "products" {
			return
		}
		fired = true
		if err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET version = version + 1 WHERE id = ?", productID).Error; err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)
}

func TestCreateOrderConcurrentStockChange(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "10.00", 10, 2)
	bumpVersionOnce(t, svc.db, product.ID)

	_, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 2)))
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	var orders, items int64
	require.NoError(t, svc.db.Unscoped().Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, svc.db.Unscoped().Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)

	stored := reloadProduct(t, svc.db, product.ID)
	assert.Equal(t, 10, stored.QuantityInStock)
	assert.Equal(t, product.Version, stored.Version)
}

func TestCancelOrderConcurrentStockChange(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "10.00", 10, 2)

	created, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 3)))
	require.NoError(t, err)
	bumpVersionOnce(t, svc.db, product.ID)

	err = svc.CancelOrder(bg, created.ID, "jane@example.com", "")
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	assert.Equal(t, 7, reloadProduct(t, svc.db, product.ID).QuantityInStock)
	found, err := svc.GetOrderByID(bg, created.ID)
	require.NoError(t, err)
	assert.Len(t, found.OrderItems, 1)
}

func TestGetOrderRoundTrip(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "12.50", 10, 1)

	created, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 4)))
	require.NoError(t, err)

	got, err := svc.GetOrderByID(bg, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Guest", got.GuestName)
	assert.Equal(t, "jane@example.com", got.GuestEmail)
	assert.Equal(t, "50.00", got.TotalAmount.StringFixed(2))
	require.Len(t, got.OrderItems, 1)
	assert.Equal(t, product.ID, got.OrderItems[0].ProductID)
	assert.Equal(t, 4, got.OrderItems[0].Quantity)
	assert.Equal(t, "Widget", got.ProductName(product.ID))

	_, err = svc.GetOrderByID(bg, created.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderKeepsDeletedProductName(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Retired", "1.00", 10, 1)

	created, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 1)))
	require.NoError(t, err)
	require.NoError(t, svc.db.Delete(&models.Product{}, product.ID).Error)

	got, err := svc.GetOrderByID(bg, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Retired", got.ProductName(product.ID))
}

func TestGetOrdersByGuestEmail(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "1.00", 100, 1)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var ids []uint
	for i, email := range []string{"jane@example.com", "other@example.com", "JANE@example.com"} {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		order := guestOrder(line(product.ID, 1))
		order.GuestEmail = email
		created, err := svc.CreateOrder(bg, order)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	orders, err := svc.GetOrdersByGuestEmail(bg, "Jane@Example.com")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[0], orders[1].ID)

	_, err = svc.GetOrdersByGuestEmail(bg, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	recent, err := svc.RecentOrders(bg, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ids[2], recent[0].ID)
}

func TestCancelOrder(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "2.00", 10, 1)

	created, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 4)))
	require.NoError(t, err)
	require.Equal(t, 6, reloadProduct(t, svc.db, product.ID).QuantityInStock)

	err = svc.CancelOrder(bg, created.ID, "someone@example.com", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 6, reloadProduct(t, svc.db, product.ID).QuantityInStock)

	require.NoError(t, svc.CancelOrder(bg, created.ID, "JANE@example.com", ""))
	assert.Equal(t, 10, reloadProduct(t, svc.db, product.ID).QuantityInStock)

	orders, items := countOrders(t, svc.db)
	assert.Zero(t, orders)
	assert.Zero(t, items)

	_, err = svc.GetOrderByID(bg, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelOrderRequiresToken(t *testing.T) {
	svc, category := newOrderService(t, true)
	product := seedProduct(t, svc.db, category.ID, "Widget", "2.00", 10, 1)

	created, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 1)))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CancelOrder(bg, created.ID, "jane@example.com", ""), ErrNotFound)
	assert.ErrorIs(t, svc.CancelOrder(bg, created.ID, "jane@example.com", "wrong"), ErrNotFound)
	require.NoError(t, svc.CancelOrder(bg, created.ID, "jane@example.com", created.CancelToken))
}

func TestAdminOrderManagement(t *testing.T) {
	svc, category := newOrderService(t, false)
	product := seedProduct(t, svc.db, category.ID, "Widget", "2.00", 10, 1)

	created, err := svc.CreateOrder(bg, guestOrder(line(product.ID, 3)))
	require.NoError(t, err)

	update := OrderUpdate{GuestName: "Jane Renamed", GuestEmail: "renamed@example.com", Version: created.Version}
	assert.ErrorIs(t, svc.UpdateOrder(bg, models.Anonymous, created.ID, update), ErrForbidden)
	require.NoError(t, svc.UpdateOrder(bg, admin, created.ID, update))
	assert.ErrorIs(t, svc.UpdateOrder(bg, admin, created.ID, update), ErrConcurrencyConflict)
	assert.ErrorIs(t, svc.UpdateOrder(bg, admin, created.ID+50, update), ErrNotFound)

	got, err := svc.GetOrderByID(bg, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Renamed", got.GuestName)
	assert.Equal(t, "6.00", got.TotalAmount.StringFixed(2))

	assert.ErrorIs(t, svc.DeleteOrder(bg, models.Anonymous, created.ID), ErrForbidden)
	require.NoError(t, svc.DeleteOrder(bg, admin, created.ID))
	assert.Equal(t, 10, reloadProduct(t, svc.db, product.ID).QuantityInStock)
	assert.ErrorIs(t, svc.DeleteOrder(bg, admin, created.ID), ErrNotFound)
}

func TestValidationErrorMatchesCauses(t *testing.T) {
	verr := newValidationError()
	verr.add(ErrProductNotFound, "missing")
	verr.add(nil, "other")

	var err error = verr
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, ErrProductNotFound))
	assert.False(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, "missing, other", err.Error())
}
