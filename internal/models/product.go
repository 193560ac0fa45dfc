package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategory: menü grubu (Sıcak Kahveler, Soğuk İçecekler...)
type ProductCategory struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product: satılabilir ürün. Reçetesi varsa uygunluk reçeteden hesaplanır,
// yoksa doğrudan Stock kullanılır (şişe içecek, paketli atıştırmalık vs.).
type Product struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"size:150;not null;unique"`
	CategoryID *uint  `gorm:"index"`
	Category   *ProductCategory
	Price      PriceSpec       `gorm:"type:jsonb;not null"`
	Stock      decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0"`
	MinStock   decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0"` // uyarı eşiği
	CostPrice  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"` // reçetesiz ürünlerde alış fiyatı
	IsActive   bool            `gorm:"not null"`
	Recipes    []Recipe        `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p Product) HasRecipes() bool {
	return len(p.Recipes) > 0
}
