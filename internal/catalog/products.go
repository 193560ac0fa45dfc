package catalog

import (
	"context"
	"strings"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"
	"kahve-backend/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductInput struct {
	Name       string           `json:"name"`
	CategoryID *uint            `json:"category_id"`
	Price      models.PriceSpec `json:"price"`
	Stock      decimal.Decimal  `json:"stock"`
	MinStock   decimal.Decimal  `json:"min_stock"`
	CostPrice  decimal.Decimal  `json:"cost_price"`
	IsActive   *bool            `json:"is_active"` // varsayılan: true
}

type ProductUpdate struct {
	Name       *string           `json:"name"`
	CategoryID *uint             `json:"category_id"`
	Price      *models.PriceSpec `json:"price"`
	MinStock   *decimal.Decimal  `json:"min_stock"`
	CostPrice  *decimal.Decimal  `json:"cost_price"`
	IsActive   *bool             `json:"is_active"`
}

func (s *Service) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	var cat models.ProductCategory
	if err := s.db.WithContext(ctx).Select("id").First(&cat, *id).Error; err != nil {
		return notFoundOr(err, apperr.EntityCategory, *id, "kategori okunamadı")
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("ürün adı zorunlu")
	}
	if in.Price.Kind == models.PriceTiered {
		in.Price = models.TieredPrice(in.Price.Tiers...)
	}
	if err := in.Price.Validate(); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if in.Stock.IsNegative() || in.MinStock.IsNegative() || in.CostPrice.IsNegative() {
		return nil, apperr.Validation("stok, minimum stok ve maliyet negatif olamaz")
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p := models.Product{
		Name:       name,
		CategoryID: in.CategoryID,
		Price:      in.Price,
		Stock:      in.Stock,
		MinStock:   in.MinStock,
		CostPrice:  in.CostPrice,
		IsActive:   in.IsActive == nil || *in.IsActive,
	}
	if err := s.db.WithContext(ctx).Omit("Category").Create(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Validation("bu isimde bir ürün zaten var: %s", name)
		}
		return nil, apperr.Persistence("ürün oluşturulamadı", err)
	}
	return &p, nil
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Preload("Category").Preload("Recipes.Items.Ingredient").First(&p, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.EntityProduct, id, "ürün okunamadı")
	}
	return &p, nil
}

func (s *Service) ListProducts(ctx context.Context, categoryID *uint) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Preload("Category")
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var list []models.Product
	if err := q.Order("name asc").Find(&list).Error; err != nil {
		return nil, apperr.Persistence("ürünler listelenemedi", err)
	}
	return list, nil
}

// UpdateProduct: doğrudan stok burada değişmez (RestockProduct)
func (s *Service) UpdateProduct(ctx context.Context, id uint, in ProductUpdate) (before, after *models.Product, err error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, nil, notFoundOr(err, apperr.EntityProduct, id, "ürün okunamadı")
	}
	old := p

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, nil, apperr.Validation("ürün adı boş olamaz")
		}
		p.Name = name
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return nil, nil, err
		}
		p.CategoryID = in.CategoryID
	}
	if in.Price != nil {
		price := *in.Price
		if price.Kind == models.PriceTiered {
			price = models.TieredPrice(price.Tiers...)
		}
		if err := price.Validate(); err != nil {
			return nil, nil, apperr.Validation("%v", err)
		}
		p.Price = price
	}
	if in.MinStock != nil {
		if in.MinStock.IsNegative() {
			return nil, nil, apperr.Validation("minimum stok negatif olamaz")
		}
		p.MinStock = *in.MinStock
	}
	if in.CostPrice != nil {
		if in.CostPrice.IsNegative() {
			return nil, nil, apperr.Validation("maliyet negatif olamaz")
		}
		p.CostPrice = *in.CostPrice
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	// stock kolonu Select dışında: eşzamanlı satış düşümünü ezmez
	err = s.db.WithContext(ctx).Model(&p).
		Select("name", "category_id", "price", "min_stock", "cost_price", "is_active").
		Updates(&p).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, apperr.Validation("bu isimde bir ürün zaten var")
		}
		return nil, nil, apperr.Persistence("ürün güncellenemedi", err)
	}
	return &old, &p, nil
}

// DeactivateProduct: geçmiş siparişler ürüne bağlı olduğundan ürünler silinmez
func (s *Service) DeactivateProduct(ctx context.Context, id uint) (*models.Product, error) {
	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return nil, apperr.Persistence("ürün pasife alınamadı", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound(apperr.EntityProduct, id)
	}
	return s.GetProduct(ctx, id)
}

// RestockProduct: reçetesiz ürünlere (şişe su, paketli kurabiye) giriş
func (s *Service) RestockProduct(ctx context.Context, id uint, qty decimal.Decimal) (*models.Product, error) {
	if !qty.IsPositive() {
		return nil, apperr.Validation("miktar 0'dan büyük olmalı")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return stock.IncrementProduct(tx, id, qty)
	})
	if err != nil {
		return nil, wrap(err, "ürün stoğu artırılamadı")
	}
	return s.GetProduct(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*models.ProductCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("kategori adı zorunlu")
	}
	cat := models.ProductCategory{Name: name}
	if err := s.db.WithContext(ctx).Create(&cat).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Validation("bu isimde bir kategori zaten var: %s", name)
		}
		return nil, apperr.Persistence("kategori oluşturulamadı", err)
	}
	return &cat, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.ProductCategory, error) {
	var list []models.ProductCategory
	if err := s.db.WithContext(ctx).Order("name asc").Find(&list).Error; err != nil {
		return nil, apperr.Persistence("kategoriler listelenemedi", err)
	}
	return list, nil
}

func (s *Service) RenameCategory(ctx context.Context, id uint, name string) (*models.ProductCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("kategori adı zorunlu")
	}
	res := s.db.WithContext(ctx).Model(&models.ProductCategory{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, apperr.Validation("bu isimde bir kategori zaten var: %s", name)
		}
		return nil, apperr.Persistence("kategori güncellenemedi", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound(apperr.EntityCategory, id)
	}
	return &models.ProductCategory{ID: id, Name: name}, nil
}

// DeleteCategory: ürünler kategorisiz kalır
func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ProductCategory{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(apperr.EntityCategory, id)
		}
		return nil
	})
	return wrap(err, "kategori silinemedi")
}
