// Package alerts: minimum stok altına düşen hammadde ve ürünleri periyodik tarar.
package alerts

import (
	"context"
	"fmt"
	"time"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/metrics"
	"kahve-backend/internal/models"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	KindIngredient = "ingredient"
	KindProduct    = "product"
)

type Item struct {
	Kind     string          `json:"kind"`
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Unit     string          `json:"unit,omitempty"`
	Stock    decimal.Decimal `json:"stock"`
	MinStock decimal.Decimal `json:"min_stock"`
	OutOf    bool            `json:"out_of_stock"`
}

type Report struct {
	ScannedAt   time.Time `json:"scanned_at"`
	Ingredients []Item    `json:"ingredients"`
	Products    []Item    `json:"products"`
}

func (r Report) Total() int {
	return len(r.Ingredients) + len(r.Products)
}

type Scanner struct {
	db      *gorm.DB
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewScanner(db *gorm.DB, log zerolog.Logger, m *metrics.Metrics) *Scanner {
	return &Scanner{db: db, log: log.With().Str("component", "alerts").Logger(), metrics: m}
}

// Scan: min_stock > 0 ve stock <= min_stock olan kayıtlar.
// Ürünlerde sadece reçetesiz (doğrudan stoklu) aktif ürünler dikkate alınır.
func (s *Scanner) Scan(ctx context.Context) (*Report, error) {
	db := s.db.WithContext(ctx)

	var ingredients []models.Ingredient
	if err := db.Where("min_stock > 0 AND stock <= min_stock").Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, apperr.Persistence("hammadde stokları okunamadı", err)
	}

	var products []models.Product
	err := db.Where("is_active = ? AND min_stock > 0 AND stock <= min_stock", true).
		Where("NOT EXISTS (SELECT 1 FROM recipes WHERE recipes.product_id = products.id)").
		Order("name asc").
		Find(&products).Error
	if err != nil {
		return nil, apperr.Persistence("ürün stokları okunamadı", err)
	}

	r := &Report{
		ScannedAt:   time.Now(),
		Ingredients: make([]Item, 0, len(ingredients)),
		Products:    make([]Item, 0, len(products)),
	}
	for _, ing := range ingredients {
		r.Ingredients = append(r.Ingredients, Item{
			Kind: KindIngredient, ID: ing.ID, Name: ing.Name, Unit: ing.Unit,
			Stock: ing.Stock, MinStock: ing.MinStock, OutOf: !ing.Stock.IsPositive(),
		})
	}
	for _, p := range products {
		r.Products = append(r.Products, Item{
			Kind: KindProduct, ID: p.ID, Name: p.Name,
			Stock: p.Stock, MinStock: p.MinStock, OutOf: !p.Stock.IsPositive(),
		})
	}

	s.metrics.SetLowStock(KindIngredient, len(r.Ingredients))
	s.metrics.SetLowStock(KindProduct, len(r.Products))
	return r, nil
}

func (s *Scanner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, err := s.Scan(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stok taraması başarısız")
		return
	}
	s.LogReport(r)
}

// LogReport: her kalem için bir uyarı satırı
func (s *Scanner) LogReport(r *Report) {
	for _, it := range append(r.Ingredients, r.Products...) {
		s.log.Warn().
			Str("kind", it.Kind).
			Uint("id", it.ID).
			Str("name", it.Name).
			Str("stock", it.Stock.String()).
			Str("min_stock", it.MinStock.String()).
			Msg("minimum stok altında")
	}
	s.log.Info().Int("count", r.Total()).Msg("stok taraması tamamlandı")
}

// Start: cron ifadesine göre arka planda tarar. Dönen scheduler'ı kapanışta Stop edin.
func (s *Scanner) Start(cronExpr string, loc *time.Location) (*gocron.Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	sched := gocron.NewScheduler(loc)
	if _, err := sched.Cron(cronExpr).Do(s.run); err != nil {
		return nil, fmt.Errorf("stok uyarı zamanlaması kurulamadı (%q): %w", cronExpr, err)
	}
	sched.StartAsync()
	return sched, nil
}
