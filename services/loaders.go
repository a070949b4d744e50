package services

import (
	"context"
	"fmt"

	"github.com/Kariqs/smart-inventory/models"
	"gorm.io/gorm"
)

// ProductListing is a product with its category attached.
type ProductListing struct {
	models.Product
	Category *models.Category `json:"category"`
}

// OrderDetails is an order together with the products its items reference,
// keyed by product id.
type OrderDetails struct {
	models.Order
	Products map[uint]models.Product `json:"products"`
}

// ProductName returns the name of a referenced product, or a placeholder when
// the product no longer exists.
func (d OrderDetails) ProductName(productID uint) string {
	if p, ok := d.Products[productID]; ok {
		return p.Name
	}
	return fmt.Sprintf("Product #%d", productID)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// LoadCategories fetches the categories with the given ids.
func LoadCategories(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]models.Category, error) {
	result := make(map[uint]models.Category)
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return result, nil
	}

	var categories []models.Category
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	for _, c := range categories {
		result[c.ID] = c
	}
	return result, nil
}

// LoadProducts fetches the products with the given ids. With includeDeleted
// soft-deleted products are returned as well, so historical orders can still
// name what was bought.
func LoadProducts(ctx context.Context, db *gorm.DB, ids []uint, includeDeleted bool) (map[uint]models.Product, error) {
	result := make(map[uint]models.Product)
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return result, nil
	}

	query := db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var products []models.Product
	if err := query.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func attachCategories(ctx context.Context, db *gorm.DB, products []models.Product) ([]ProductListing, error) {
	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.CategoryID)
	}

	categories, err := LoadCategories(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	listings := make([]ProductListing, 0, len(products))
	for _, p := range products {
		listing := ProductListing{Product: p}
		if c, ok := categories[p.CategoryID]; ok {
			listing.Category = &c
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func attachProducts(ctx context.Context, db *gorm.DB, orders []models.Order) ([]OrderDetails, error) {
	var ids []uint
	for _, o := range orders {
		for _, item := range o.OrderItems {
			ids = append(ids, item.ProductID)
		}
	}

	products, err := LoadProducts(ctx, db, ids, true)
	if err != nil {
		return nil, err
	}

	details := make([]OrderDetails, 0, len(orders))
	for _, o := range orders {
		refs := make(map[uint]models.Product, len(o.OrderItems))
		for _, item := range o.OrderItems {
			if p, ok := products[item.ProductID]; ok {
				refs[item.ProductID] = p
			}
		}
		details = append(details, OrderDetails{Order: o, Products: refs})
	}
	return details, nil
}

func requireAdmin(actor models.Principal) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}
