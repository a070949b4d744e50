package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService struct {
	db                 *gorm.DB
	log                zerolog.Logger
	requireCancelToken bool
	now                func() time.Time
}

// OrderUpdate holds the admin-editable fields of an order. Version must be
// the version the editor loaded.
type OrderUpdate struct {
	GuestName  string `validate:"required,max=100"`
	GuestEmail string `validate:"required,email,max=100"`
	Version    uint
}

// NewOrderService builds the order workflow. With requireCancelToken guests
// must present the order's cancel token in addition to its email to cancel.
func NewOrderService(db *gorm.DB, logger zerolog.Logger, requireCancelToken bool) *OrderService {
	return &OrderService{
		db:                 db,
		log:                logger.With().Str("component", "order_service").Logger(),
		requireCancelToken: requireCancelToken,
		now:                time.Now,
	}
}

// CreateOrder validates every requested line against current stock, prices
// the lines from current product prices, decrements stock and stores the
// order, all in one transaction. Nothing is written when any line is
// rejected.
func (s *OrderService) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.GuestName = strings.TrimSpace(order.GuestName)
	order.GuestEmail = strings.TrimSpace(order.GuestEmail)

	verr := newValidationError()
	for _, msg := range models.Validate(order) {
		verr.add(nil, msg)
	}
	if len(order.OrderItems) == 0 {
		verr.add(nil, "At least one order item is required.")
	}

	// Quantities of repeated products are checked against stock together.
	requested := make(map[uint]int)
	var productIDs []uint
	for _, item := range order.OrderItems {
		if item.Quantity <= 0 {
			verr.add(nil, fmt.Sprintf("Quantity for product %d must be greater than 0.", item.ProductID))
			continue
		}
		if _, seen := requested[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products, err := LoadProducts(ctx, tx, productIDs, false)
		if err != nil {
			return err
		}

		for _, id := range productIDs {
			product, ok := products[id]
			if !ok {
				verr.add(ErrProductNotFound, fmt.Sprintf("Product with ID %d not found.", id))
				continue
			}
			if product.QuantityInStock < requested[id] {
				verr.add(ErrInsufficientStock, fmt.Sprintf("Insufficient stock for product %s. Available: %d, Requested: %d",
					product.Name, product.QuantityInStock, requested[id]))
			}
		}
		if !verr.empty() {
			return verr
		}

		order.Model = gorm.Model{}
		order.Version = 0
		order.OrderDate = s.now().UTC()
		order.CancelToken = uuid.NewString()
		order.TotalAmount = decimal.Zero
		for i := range order.OrderItems {
			item := &order.OrderItems[i]
			item.Model = gorm.Model{}
			item.OrderID = 0
			item.UnitPrice = products[item.ProductID].Price
			order.TotalAmount = order.TotalAmount.Add(item.Subtotal())
		}

		for _, id := range productIDs {
			if err := adjustStock(tx, products[id], -requested[id]); err != nil {
				return err
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		return nil
	})

	switch {
	case err == nil:
		s.log.Info().Uint("order_id", order.ID).Str("total", order.TotalAmount.StringFixed(2)).Msg("order created")
		return order, nil
	case errors.Is(err, ErrValidation):
		s.log.Warn().Strs("errors", verr.Messages).Str("guest_email", order.GuestEmail).Msg("order rejected")
		return nil, err
	case errors.Is(err, ErrConcurrencyConflict):
		s.log.Warn().Str("guest_email", order.GuestEmail).Msg("order aborted by concurrent stock change")
		return nil, err
	default:
		s.log.Error().Err(err).Str("guest_email", order.GuestEmail).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
}

// adjustStock changes a product's stock by delta, guarded by the version the
// product was loaded with.
func adjustStock(tx *gorm.DB, product models.Product, delta int) error {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]any{
			"quantity_in_stock": product.QuantityInStock + delta,
			"version":           product.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update stock of product %d: %w", product.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}
	return nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id uint) (*OrderDetails, error) {
	db := s.db.WithContext(ctx)

	var order models.Order
	if err := db.Preload("OrderItems").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.log.Error().Err(err).Uint("order_id", id).Msg("failed to fetch order")
		return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
	}

	details, err := attachProducts(ctx, db, []models.Order{order})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// GetOrdersByGuestEmail returns the orders placed with the given email,
// newest first. The email comparison ignores case.
func (s *OrderService) GetOrdersByGuestEmail(ctx context.Context, email string) ([]OrderDetails, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, newValidationError("Please enter your email address.")
	}

	return s.findOrders(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(guest_email) = LOWER(?)", email)
	})
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]OrderDetails, error) {
	return s.findOrders(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

func (s *OrderService) RecentOrders(ctx context.Context, limit int) ([]OrderDetails, error) {
	return s.findOrders(ctx, func(db *gorm.DB) *gorm.DB { return db.Limit(limit) })
}

func (s *OrderService) findOrders(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]OrderDetails, error) {
	db := s.db.WithContext(ctx)

	var orders []models.Order
	if err := db.Scopes(scope).Preload("OrderItems").Order("order_date desc, id desc").Find(&orders).Error; err != nil {
		s.log.Error().Err(err).Msg("failed to fetch orders")
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return attachProducts(ctx, db, orders)
}

// UpdateOrder changes the guest details of an order. Date, lines and total
// are fixed at creation.
func (s *OrderService) UpdateOrder(ctx context.Context, actor models.Principal, id uint, in OrderUpdate) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if msgs := models.Validate(in); msgs != nil {
		return newValidationError(msgs...)
	}

	db := s.db.WithContext(ctx)
	result := db.Model(&models.Order{}).
		Where("id = ? AND version = ?", id, in.Version).
		Updates(map[string]any{
			"guest_name":  strings.TrimSpace(in.GuestName),
			"guest_email": strings.TrimSpace(in.GuestEmail),
			"version":     in.Version + 1,
		})
	if result.Error != nil {
		s.log.Error().Err(result.Error).Uint("order_id", id).Msg("failed to update order")
		return fmt.Errorf("failed to update order %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check order %d: %w", id, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		s.log.Warn().Uint("order_id", id).Uint("version", in.Version).Msg("concurrent order update detected")
		return ErrConcurrencyConflict
	}

	s.log.Info().Uint("order_id", id).Uint("admin_id", actor.UserID).Msg("order updated")
	return nil
}

// DeleteOrder removes an order on behalf of an admin and returns its
// quantities to stock.
func (s *OrderService) DeleteOrder(ctx context.Context, actor models.Principal, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.removeOrder(ctx, id, func(models.Order) bool { return true })
}

// CancelOrder lets a guest withdraw an order. The email must match the one
// the order was placed with; when cancel tokens are required the token must
// match too. A mismatch is reported as ErrNotFound.
func (s *OrderService) CancelOrder(ctx context.Context, id uint, email, token string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return newValidationError("Please enter your email address.")
	}

	return s.removeOrder(ctx, id, func(o models.Order) bool {
		if !strings.EqualFold(o.GuestEmail, email) {
			return false
		}
		return !s.requireCancelToken || (token != "" && token == o.CancelToken)
	})
}

func (s *OrderService) removeOrder(ctx context.Context, id uint, allowed func(models.Order) bool) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("OrderItems").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch order %d: %w", id, err)
		}
		if !allowed(order) {
			return ErrNotFound
		}

		returned := make(map[uint]int)
		var productIDs []uint
		for _, item := range order.OrderItems {
			if _, seen := returned[item.ProductID]; !seen {
				productIDs = append(productIDs, item.ProductID)
			}
			returned[item.ProductID] += item.Quantity
		}

		products, err := LoadProducts(ctx, tx, productIDs, false)
		if err != nil {
			return err
		}
		for _, pid := range productIDs {
			product, ok := products[pid]
			if !ok {
				continue
			}
			if err := adjustStock(tx, product, returned[pid]); err != nil {
				return err
			}
		}

		if err := tx.Select("OrderItems").Delete(&order).Error; err != nil {
			return fmt.Errorf("failed to delete order %d: %w", id, err)
		}
		return nil
	})

	switch {
	case err == nil:
		s.log.Info().Uint("order_id", id).Msg("order deleted")
		return nil
	case errors.Is(err, ErrNotFound):
		s.log.Warn().Uint("order_id", id).Msg("order not found or not deletable")
		return err
	case errors.Is(err, ErrConcurrencyConflict):
		s.log.Warn().Uint("order_id", id).Msg("order deletion aborted by concurrent stock change")
		return err
	default:
		s.log.Error().Err(err).Uint("order_id", id).Msg("failed to delete order")
		return err
	}
}
