package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WasteEntry: hammadde zayiatı (dökülen süt, kırılan bardak...)
type WasteEntry struct {
	ID           uint `gorm:"primaryKey"`
	BranchID     uint `gorm:"index;not null"`
	IngredientID uint `gorm:"index;not null"`
	Ingredient   Ingredient
	Date         time.Time       `gorm:"index;not null"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,3);not null"`
	Note         string          `gorm:"size:500;not null"` // zorunlu: sebep
	UserID       uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
