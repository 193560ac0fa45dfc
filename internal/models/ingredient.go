package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient: hammadde (kahve çekirdeği, süt, bardak...). Stok asla negatife düşmez,
// tüm düşümler koşullu UPDATE ile yapılır.
type Ingredient struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"size:150;not null;unique"`
	NormalizedName string          `gorm:"size:150;index"` // arama/import eşleştirmesi için
	Unit           string          `gorm:"size:20;not null"` // adet, gram, ml...
	Stock          decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0"`
	MinStock       decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0"`
	CostPerUnit    decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementPurchase   MovementType = "purchase"
	MovementWaste      MovementType = "waste"
	MovementAdjustment MovementType = "adjustment"
)

// IngredientMovement: hammadde stok hareket geçmişi (sadece ekleme yapılır)
type IngredientMovement struct {
	ID           uint            `gorm:"primaryKey"`
	IngredientID uint            `gorm:"index;not null"`
	BranchID     *uint           `gorm:"index"`
	Type         MovementType    `gorm:"size:20;not null;index"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,3);not null"` // girişte pozitif, çıkışta negatif
	UnitCost     decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0"`
	OrderID      *uint           `gorm:"index"`
	UserID       uint
	Note         string `gorm:"size:255"`
	CreatedAt    time.Time
}
