package checkout

import (
	"context"
	"errors"
	"time"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"

	"gorm.io/gorm"
)

type OrderFilter struct {
	BranchID      uint
	From, To      *time.Time
	PaymentMethod models.PaymentMethod
	CustomerID    *uint
	Limit         int
}

func (e *Engine) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	q := e.db.WithContext(ctx).Preload("Items").Where("branch_id = ?", f.BranchID)
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	var orders []models.Order
	if err := q.Order("created_at desc, id desc").Limit(f.Limit).Find(&orders).Error; err != nil {
		return nil, apperr.Persistence("siparişler listelenemedi", err)
	}
	return orders, nil
}

// GetOrder: başka şubenin siparişi bulunamadı sayılır
func (e *Engine) GetOrder(ctx context.Context, id, branchID uint) (*models.Order, error) {
	var order models.Order
	err := e.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Where("id = ? AND branch_id = ?", id, branchID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.EntityOrder, id)
		}
		return nil, apperr.Persistence("sipariş okunamadı", err)
	}
	return &order, nil
}
