package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GenericSize: boyuttan bağımsız reçete. DB'de boş string olarak tutulur.
const GenericSize = ""

// NormalizeSize: null / "Standart" / boşluklu girişleri tek forma indirir.
func NormalizeSize(size string) string {
	s := strings.TrimSpace(size)
	if strings.EqualFold(s, "standart") || strings.EqualFold(s, "standard") {
		return GenericSize
	}
	return strings.ToUpper(s)
}

// Recipe: bir ürünün (opsiyonel olarak boyuta göre) hammadde listesi.
// (product_id, size) tekil.
type Recipe struct {
	ID        uint         `gorm:"primaryKey"`
	ProductID uint         `gorm:"not null;uniqueIndex:idx_recipe_product_size"`
	Size      string       `gorm:"size:20;not null;default:'';uniqueIndex:idx_recipe_product_size"`
	Items     []RecipeItem `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Recipe) IsGeneric() bool {
	return NormalizeSize(r.Size) == GenericSize
}

// RecipeItem: 1 adet ürün satışında tüketilen hammadde miktarı
type RecipeItem struct {
	ID           uint            `gorm:"primaryKey"`
	RecipeID     uint            `gorm:"index;not null"`
	IngredientID uint            `gorm:"index;not null"`
	Ingredient   Ingredient      `gorm:"constraint:OnDelete:RESTRICT"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,3);not null"`
}
