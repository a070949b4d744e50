package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	gorm.Model
	GuestName   string          `json:"guestName" gorm:"size:100;not null" validate:"required,max=100"`
	GuestEmail  string          `json:"guestEmail" gorm:"size:100;not null;index" validate:"required,email,max=100"`
	OrderDate   time.Time       `json:"orderDate" gorm:"not null"`
	TotalAmount decimal.Decimal `json:"totalAmount" gorm:"type:decimal(18,2);not null"`
	CancelToken string          `json:"-" gorm:"size:36"`
	Version     uint            `json:"version" gorm:"not null"`
	OrderItems  []OrderItem     `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem references its product by id. UnitPrice is the product price at
// the moment the order was placed.
type OrderItem struct {
	gorm.Model
	OrderID   uint            `json:"orderId" gorm:"not null;index"`
	ProductID uint            `json:"productId" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:decimal(18,2);not null"`
}

// Subtotal is Quantity * UnitPrice.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
