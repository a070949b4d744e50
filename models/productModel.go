package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. The owning category is referenced by CategoryID
// only; use the services loaders to attach it.
type Product struct {
	gorm.Model
	Name              string          `json:"name" gorm:"size:100;not null" validate:"required,max=100"`
	Description       string          `json:"description" gorm:"size:1000" validate:"max=1000"`
	Price             decimal.Decimal `json:"price" gorm:"type:decimal(18,2);not null" validate:"gt=0"`
	QuantityInStock   int             `json:"quantityInStock" gorm:"not null" validate:"gte=0"`
	LowStockThreshold int             `json:"lowStockThreshold" gorm:"not null" validate:"gte=0"`
	CategoryID        uint            `json:"categoryId" gorm:"not null;index" validate:"gt=0"`
	ImageURL          string          `json:"imageUrl" gorm:"size:500"`
	Version           uint            `json:"version" gorm:"not null"`
}

// IsLowStock reports whether the stock level is at or below the threshold.
func (p Product) IsLowStock() bool {
	return p.QuantityInStock <= p.LowStockThreshold
}
