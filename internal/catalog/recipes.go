package catalog

import (
	"context"
	"sort"
	"time"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecipeItemInput struct {
	IngredientID uint            `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// SaveRecipe: (ürün, boyut) reçetesini verilen satırlarla değiştirir.
// Reçete yoksa oluşturulur. Boş/"Standart" boyut jenerik reçetedir.
func (s *Service) SaveRecipe(ctx context.Context, productID uint, size string, items []RecipeItemInput) (*models.Recipe, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("reçetede en az bir hammadde olmalı")
	}
	seen := make(map[uint]bool, len(items))
	for _, it := range items {
		if it.IngredientID == 0 {
			return nil, apperr.Validation("ingredient_id zorunlu")
		}
		if !it.Quantity.IsPositive() {
			return nil, apperr.Validation("reçete miktarı 0'dan büyük olmalı")
		}
		if seen[it.IngredientID] {
			return nil, apperr.Validation("hammadde reçetede tekrar ediyor (id=%d)", it.IngredientID)
		}
		seen[it.IngredientID] = true
	}
	size = models.NormalizeSize(size)

	var recipeID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Select("id").First(&p, productID).Error; err != nil {
			return notFoundOr(err, apperr.EntityProduct, productID, "ürün okunamadı")
		}

		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.IngredientID)
		}
		var found []uint
		if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
			return err
		}
		if len(found) != len(ids) {
			known := make(map[uint]bool, len(found))
			for _, id := range found {
				known[id] = true
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			for _, id := range ids {
				if !known[id] {
					return apperr.NotFound(apperr.EntityIngredient, id)
				}
			}
		}

		recipe := models.Recipe{ProductID: productID, Size: size}
		if err := tx.Where("product_id = ? AND size = ?", productID, size).FirstOrCreate(&recipe).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeItem{}).Error; err != nil {
			return err
		}
		rows := make([]models.RecipeItem, 0, len(items))
		for _, it := range items {
			rows = append(rows, models.RecipeItem{RecipeID: recipe.ID, IngredientID: it.IngredientID, Quantity: it.Quantity})
		}
		if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
			return err
		}
		recipeID = recipe.ID
		return tx.Model(&recipe).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, wrap(err, "reçete kaydedilemedi")
	}
	return s.GetRecipe(ctx, recipeID)
}

func (s *Service) GetRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var r models.Recipe
	if err := s.db.WithContext(ctx).Preload("Items.Ingredient").First(&r, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.EntityRecipe, id, "reçete okunamadı")
	}
	return &r, nil
}

func (s *Service) ListRecipes(ctx context.Context, productID uint) ([]models.Recipe, error) {
	var list []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Items.Ingredient").
		Where("product_id = ?", productID).
		Order("size asc").
		Find(&list).Error
	if err != nil {
		return nil, apperr.Persistence("reçeteler listelenemedi", err)
	}
	return list, nil
}

// DeleteRecipe: satırlar da silinir. Ürünün son reçetesi silinirse ürün
// tekrar doğrudan stoktan satılır.
func (s *Service) DeleteRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	r, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return nil, apperr.Persistence("reçete silinemedi", err)
	}
	return r, nil
}
