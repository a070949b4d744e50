package services

import (
	"context"
)

const recentOrderCount = 5

type Dashboard struct {
	TotalProducts    int64
	TotalCategories  int64
	LowStockProducts []ProductListing
	RecentOrders     []OrderDetails
}

type DashboardService struct {
	products   *ProductService
	categories *CategoryService
	orders     *OrderService
}

func NewDashboardService(products *ProductService, categories *CategoryService, orders *OrderService) *DashboardService {
	return &DashboardService{products: products, categories: categories, orders: orders}
}

// Summary collects the figures shown on the home page.
func (s *DashboardService) Summary(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)

	if d.TotalProducts, err = s.products.Count(ctx); err != nil {
		return nil, err
	}
	if d.TotalCategories, err = s.categories.Count(ctx); err != nil {
		return nil, err
	}
	if d.LowStockProducts, err = s.products.LowStock(ctx); err != nil {
		return nil, err
	}
	if d.RecentOrders, err = s.orders.RecentOrders(ctx, recentOrderCount); err != nil {
		return nil, err
	}
	return &d, nil
}
