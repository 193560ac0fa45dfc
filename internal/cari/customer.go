package cari

import (
	"context"
	"errors"
	"strings"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"

	"gorm.io/gorm"
)

type CustomerInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Note  string `json:"note"`
}

func (l *Ledger) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("müşteri adı boş olamaz")
	}
	c := models.Customer{
		Name:  name,
		Phone: strings.TrimSpace(in.Phone),
		Email: strings.TrimSpace(strings.ToLower(in.Email)),
		Note:  strings.TrimSpace(in.Note),
	}
	if err := l.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperr.Persistence("müşteri oluşturulamadı", err)
	}
	return &c, nil
}

func (l *Ledger) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := l.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.EntityCustomer, id)
		}
		return nil, apperr.Persistence("müşteri okunamadı", err)
	}
	return &c, nil
}

// ListCustomers: q verilirse isim/telefon içinde arar
func (l *Ledger) ListCustomers(ctx context.Context, q string) ([]models.Customer, error) {
	dbq := l.db.WithContext(ctx).Model(&models.Customer{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR phone LIKE ?", like, like)
	}
	var customers []models.Customer
	if err := dbq.Order("name asc").Find(&customers).Error; err != nil {
		return nil, apperr.Persistence("müşteriler listelenemedi", err)
	}
	return customers, nil
}

// UpdateCustomer: boş bırakılan alanlar değişmez. Müşteri silinmez, cari geçmişi ona bağlıdır.
func (l *Ledger) UpdateCustomer(ctx context.Context, id uint, in CustomerInput) (before, after *models.Customer, err error) {
	before, err = l.GetCustomer(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	updated := *before
	if name := strings.TrimSpace(in.Name); name != "" {
		updated.Name = name
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		updated.Phone = phone
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		updated.Email = strings.ToLower(email)
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		updated.Note = note
	}
	err = l.db.WithContext(ctx).Model(&models.Customer{ID: id}).
		Select("name", "phone", "email", "note").
		Updates(&updated).Error
	if err != nil {
		return nil, nil, apperr.Persistence("müşteri güncellenemedi", err)
	}
	return before, &updated, nil
}
