package availability

import (
	"context"
	"errors"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"

	"gorm.io/gorm"
)

// ProductView: menü/kasa ekranında gösterilen ürün + uygunluk
type ProductView struct {
	ID           uint              `json:"id"`
	Name         string            `json:"name"`
	CategoryID   *uint             `json:"category_id"`
	CategoryName string            `json:"category_name,omitempty"`
	Price        models.PriceSpec  `json:"price"`
	IsActive     bool              `json:"is_active"`
	Availability Result            `json:"availability"`
	Sizes        map[string]Result `json:"sizes,omitempty"` // boyutlu fiyatta boyut bazında
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func withRecipes(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Recipes.Items.Ingredient")
}

// Check: tek ürün, opsiyonel boyut
func (s *Service) Check(ctx context.Context, productID uint, size string) (*ProductView, error) {
	var p models.Product
	if err := withRecipes(s.db.WithContext(ctx)).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.EntityProduct, productID)
		}
		return nil, apperr.Persistence("ürün okunamadı", err)
	}
	v := view(p)
	v.Availability = Resolve(p, size)
	return &v, nil
}

// Catalog: tüm ürünler tek seferde yüklenip bellekte değerlendirilir
// (katalog yüzlerce ürün mertebesinde).
func (s *Service) Catalog(ctx context.Context, onlyActive bool) ([]ProductView, error) {
	q := withRecipes(s.db.WithContext(ctx))
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	var products []models.Product
	if err := q.Order("name asc").Find(&products).Error; err != nil {
		return nil, apperr.Persistence("ürünler listelenemedi", err)
	}

	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		v := view(p)
		v.Availability = Resolve(p, models.GenericSize)
		if sizes := p.Price.Sizes(); len(sizes) > 0 {
			v.Sizes = make(map[string]Result, len(sizes))
			for _, size := range sizes {
				v.Sizes[size] = Resolve(p, size)
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func view(p models.Product) ProductView {
	v := ProductView{
		ID:         p.ID,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		Price:      p.Price,
		IsActive:   p.IsActive,
	}
	if p.Category != nil {
		v.CategoryName = p.Category.Name
	}
	return v
}
