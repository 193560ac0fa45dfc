// Package stock: hammadde ve ürün stoklarına atomik artış/azalış.
// Tüm fonksiyonlar çağıranın transaction'ı (tx) içinde çalışır.
package stock

import (
	"errors"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DecrementIngredient: stok >= qty ise düşer, değilse InsufficientStock.
// Okuma + yazma ayrı round-trip değildir; tek koşullu UPDATE.
func DecrementIngredient(tx *gorm.DB, id uint, qty decimal.Decimal) error {
	res := tx.Model(&models.Ingredient{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return apperr.Persistence("hammadde stoğu düşülemedi", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var ing models.Ingredient
	if err := tx.Select("id", "name").First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(apperr.EntityIngredient, id)
		}
		return apperr.Persistence("hammadde okunamadı", err)
	}
	return apperr.InsufficientStock(apperr.EntityIngredient, id, ing.Name)
}

// DecrementProduct: reçetesiz ürünün doğrudan stoğu
func DecrementProduct(tx *gorm.DB, id uint, qty decimal.Decimal) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return apperr.Persistence("ürün stoğu düşülemedi", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var p models.Product
	if err := tx.Select("id", "name").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(apperr.EntityProduct, id)
		}
		return apperr.Persistence("ürün okunamadı", err)
	}
	return apperr.InsufficientStock(apperr.EntityProduct, id, p.Name)
}

func IncrementIngredient(tx *gorm.DB, id uint, qty decimal.Decimal) error {
	res := tx.Model(&models.Ingredient{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return apperr.Persistence("hammadde stoğu artırılamadı", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.EntityIngredient, id)
	}
	return nil
}

func IncrementProduct(tx *gorm.DB, id uint, qty decimal.Decimal) error {
	res := tx.Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return apperr.Persistence("ürün stoğu artırılamadı", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.EntityProduct, id)
	}
	return nil
}
