package catalog

import (
	"context"
	"strings"
	"time"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"
	"kahve-backend/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type IngredientInput struct {
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Stock       decimal.Decimal `json:"stock"`
	MinStock    decimal.Decimal `json:"min_stock"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
}

type IngredientUpdate struct {
	Name        *string          `json:"name"`
	Unit        *string          `json:"unit"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	CostPerUnit *decimal.Decimal `json:"cost_per_unit"`
}

// StockChange: alım, zayiat ve sayım düzeltmesi için ortak girdi
type StockChange struct {
	IngredientID uint
	BranchID     *uint
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal // sadece alımda
	UserID       uint
	Note         string
	Date         time.Time // sadece zayiatta, boşsa bugün
}

func (s *Service) CreateIngredient(ctx context.Context, in IngredientInput) (*models.Ingredient, error) {
	name := strings.TrimSpace(in.Name)
	unit := strings.TrimSpace(in.Unit)
	if name == "" || unit == "" {
		return nil, apperr.Validation("hammadde adı ve birimi zorunlu")
	}
	if in.Stock.IsNegative() || in.MinStock.IsNegative() || in.CostPerUnit.IsNegative() {
		return nil, apperr.Validation("stok, minimum stok ve birim maliyet negatif olamaz")
	}

	ing := models.Ingredient{
		Name:           name,
		NormalizedName: NormalizeName(name),
		Unit:           unit,
		Stock:          in.Stock,
		MinStock:       in.MinStock,
		CostPerUnit:    in.CostPerUnit,
	}
	if err := s.db.WithContext(ctx).Create(&ing).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Validation("bu isimde bir hammadde zaten var: %s", name)
		}
		return nil, apperr.Persistence("hammadde oluşturulamadı", err)
	}
	return &ing, nil
}

func (s *Service) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.EntityIngredient, id, "hammadde okunamadı")
	}
	return &ing, nil
}

// ListIngredients: q normalize edilmiş isimde aranır ("cekirdek" → "Çekirdek")
func (s *Service) ListIngredients(ctx context.Context, q string) ([]models.Ingredient, error) {
	dbq := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if q = NormalizeName(q); q != "" {
		dbq = dbq.Where("normalized_name LIKE ?", "%"+q+"%")
	}
	var list []models.Ingredient
	if err := dbq.Order("name asc").Find(&list).Error; err != nil {
		return nil, apperr.Persistence("hammaddeler listelenemedi", err)
	}
	return list, nil
}

// UpdateIngredient: stok burada değişmez (Adjust / ReceivePurchase kullanılır)
func (s *Service) UpdateIngredient(ctx context.Context, id uint, in IngredientUpdate) (before, after *models.Ingredient, err error) {
	ing, err := s.GetIngredient(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	old := *ing

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, nil, apperr.Validation("hammadde adı boş olamaz")
		}
		updates["name"] = name
		updates["normalized_name"] = NormalizeName(name)
	}
	if in.Unit != nil {
		unit := strings.TrimSpace(*in.Unit)
		if unit == "" {
			return nil, nil, apperr.Validation("birim boş olamaz")
		}
		updates["unit"] = unit
	}
	if in.MinStock != nil {
		if in.MinStock.IsNegative() {
			return nil, nil, apperr.Validation("minimum stok negatif olamaz")
		}
		updates["min_stock"] = *in.MinStock
	}
	if in.CostPerUnit != nil {
		if in.CostPerUnit.IsNegative() {
			return nil, nil, apperr.Validation("birim maliyet negatif olamaz")
		}
		updates["cost_per_unit"] = *in.CostPerUnit
	}
	if len(updates) == 0 {
		return &old, ing, nil
	}

	if err := s.db.WithContext(ctx).Model(ing).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, nil, apperr.Validation("bu isimde bir hammadde zaten var")
		}
		return nil, nil, apperr.Persistence("hammadde güncellenemedi", err)
	}
	after, err = s.GetIngredient(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &old, after, nil
}

// DeleteIngredient: herhangi bir reçetede kullanılıyorsa silinmez
func (s *Service) DeleteIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var deleted *models.Ingredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ing models.Ingredient
		if err := tx.First(&ing, id).Error; err != nil {
			return notFoundOr(err, apperr.EntityIngredient, id, "hammadde okunamadı")
		}

		var used int64
		if err := tx.Model(&models.RecipeItem{}).Where("ingredient_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return apperr.Validation("%s %d reçetede kullanılıyor, önce reçetelerden çıkarın", ing.Name, used)
		}

		if err := tx.Delete(&ing).Error; err != nil {
			return err
		}
		deleted = &ing
		return nil
	})
	if err != nil {
		return nil, wrap(err, "hammadde silinemedi")
	}
	return deleted, nil
}

// ReceivePurchase: tedarikçi alımı. Stok atomik artar, birim maliyet son alım fiyatı olur.
func (s *Service) ReceivePurchase(ctx context.Context, ch StockChange) (*models.Ingredient, error) {
	if !ch.Quantity.IsPositive() {
		return nil, apperr.Validation("alım miktarı 0'dan büyük olmalı")
	}
	if ch.UnitCost.IsNegative() {
		return nil, apperr.Validation("birim maliyet negatif olamaz")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := stock.IncrementIngredient(tx, ch.IngredientID, ch.Quantity); err != nil {
			return err
		}
		if ch.UnitCost.IsPositive() {
			if err := tx.Model(&models.Ingredient{}).Where("id = ?", ch.IngredientID).
				Update("cost_per_unit", ch.UnitCost).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.IngredientMovement{
			IngredientID: ch.IngredientID,
			BranchID:     ch.BranchID,
			Type:         models.MovementPurchase,
			Quantity:     ch.Quantity,
			UnitCost:     ch.UnitCost,
			UserID:       ch.UserID,
			Note:         ch.Note,
		}).Error
	})
	if err != nil {
		return nil, wrap(err, "alım kaydedilemedi")
	}

	s.log.Info().Uint("ingredient_id", ch.IngredientID).Str("quantity", ch.Quantity.String()).Msg("hammadde alımı")
	return s.GetIngredient(ctx, ch.IngredientID)
}

// Adjust: sayım sonrası mutlak stok. Hareket kaydına fark yazılır.
func (s *Service) Adjust(ctx context.Context, ch StockChange) (before, after *models.Ingredient, err error) {
	if ch.Quantity.IsNegative() {
		return nil, nil, apperr.Validation("stok negatif olamaz")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ing models.Ingredient
		if err := tx.First(&ing, ch.IngredientID).Error; err != nil {
			return notFoundOr(err, apperr.EntityIngredient, ch.IngredientID, "hammadde okunamadı")
		}
		old := ing
		before = &old

		delta := ch.Quantity.Sub(ing.Stock)
		if delta.IsZero() {
			after = &ing
			return nil
		}
		// fark atomik uygulanır, arada satış olduysa stok yine negatife düşmez
		res := tx.Model(&models.Ingredient{}).Where("id = ? AND stock + ? >= 0", ing.ID, delta).
			Update("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InsufficientStock(apperr.EntityIngredient, ing.ID, ing.Name)
		}
		if err := tx.Create(&models.IngredientMovement{
			IngredientID: ing.ID,
			BranchID:     ch.BranchID,
			Type:         models.MovementAdjustment,
			Quantity:     delta,
			UserID:       ch.UserID,
			Note:         ch.Note,
		}).Error; err != nil {
			return err
		}
		if err := tx.First(&ing, ing.ID).Error; err != nil {
			return err
		}
		after = &ing
		return nil
	})
	if err != nil {
		return nil, nil, wrap(err, "stok düzeltilemedi")
	}
	return before, after, nil
}

// RecordWaste: zayiat. Stok yetmiyorsa InsufficientStock, hiçbir şey yazılmaz.
func (s *Service) RecordWaste(ctx context.Context, ch StockChange) (*models.WasteEntry, error) {
	if !ch.Quantity.IsPositive() {
		return nil, apperr.Validation("zayiat miktarı 0'dan büyük olmalı")
	}
	note := strings.TrimSpace(ch.Note)
	if len([]rune(note)) < 3 {
		return nil, apperr.Validation("not zorunlu ve en az 3 karakter olmalı")
	}
	if ch.BranchID == nil || *ch.BranchID == 0 {
		return nil, apperr.Validation("branch_id zorunlu")
	}
	date := ch.Date
	if date.IsZero() {
		date = time.Now()
	}

	var entry models.WasteEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var branch models.Branch
		if err := tx.Select("id").First(&branch, *ch.BranchID).Error; err != nil {
			return notFoundOr(err, apperr.EntityBranch, *ch.BranchID, "şube okunamadı")
		}
		if err := stock.DecrementIngredient(tx, ch.IngredientID, ch.Quantity); err != nil {
			return err
		}
		entry = models.WasteEntry{
			BranchID:     *ch.BranchID,
			IngredientID: ch.IngredientID,
			Date:         date,
			Quantity:     ch.Quantity,
			Note:         note,
			UserID:       ch.UserID,
		}
		if err := tx.Omit("Ingredient").Create(&entry).Error; err != nil {
			return err
		}
		return tx.Create(&models.IngredientMovement{
			IngredientID: ch.IngredientID,
			BranchID:     ch.BranchID,
			Type:         models.MovementWaste,
			Quantity:     ch.Quantity.Neg(),
			UserID:       ch.UserID,
			Note:         note,
		}).Error
	})
	if err != nil {
		return nil, wrap(err, "zayiat kaydedilemedi")
	}
	return &entry, nil
}

// ListWaste: şubenin zayiat kayıtları, tarih aralığı opsiyonel
func (s *Service) ListWaste(ctx context.Context, branchID uint, from, to *time.Time) ([]models.WasteEntry, error) {
	q := s.db.WithContext(ctx).Preload("Ingredient").Where("branch_id = ?", branchID)
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date < ?", *to)
	}
	var list []models.WasteEntry
	if err := q.Order("date desc, id desc").Find(&list).Error; err != nil {
		return nil, apperr.Persistence("zayiat kayıtları listelenemedi", err)
	}
	return list, nil
}

// Movements: bir hammaddenin hareket geçmişi
func (s *Service) Movements(ctx context.Context, ingredientID uint, limit int) ([]models.IngredientMovement, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var list []models.IngredientMovement
	err := s.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, apperr.Persistence("stok hareketleri listelenemedi", err)
	}
	return list, nil
}
