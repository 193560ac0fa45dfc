package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
	PaymentCari PaymentMethod = "CARI" // veresiye, müşterinin carisine yazılır
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentCari:
		return true
	}
	return false
}

// IsDeferred: ödeme sonradan (cari üzerinden) alınacak mı
func (m PaymentMethod) IsDeferred() bool {
	return m == PaymentCari
}

type OrderStatus string

const (
	OrderCompleted OrderStatus = "COMPLETED"
)

type Order struct {
	ID             uint   `gorm:"primaryKey"`
	Number         string `gorm:"size:36;not null;uniqueIndex"`
	BranchID       uint   `gorm:"index;not null;uniqueIndex:idx_orders_branch_idempotency,priority:1"`
	Branch         Branch
	CustomerID     *uint `gorm:"index"`
	Customer       *Customer
	UserID         uint
	Status         OrderStatus     `gorm:"size:20;not null"`
	PaymentMethod  PaymentMethod   `gorm:"size:10;not null;index"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Discount       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	FinalAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	IdempotencyKey *string         `gorm:"size:100;uniqueIndex:idx_orders_branch_idempotency,priority:2"` // şube içinde tekil
	Note           string          `gorm:"size:255"`
	Items          []OrderItem     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"index"`
	UpdatedAt      time.Time
}

// OrderItem: oluşturulduktan sonra değişmez
type OrderItem struct {
	ID          uint   `gorm:"primaryKey"`
	OrderID     uint   `gorm:"index;not null"`
	ProductID   uint   `gorm:"index;not null"`
	ProductName string `gorm:"size:150"`
	Size        string `gorm:"size:20"`
	RecipeID    *uint
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	BuyPrice    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Total       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}
