// Package cari: müşteri + şube bazlı açık hesap (veresiye) defteri.
//
// Bakiye her zaman Σ DEBIT − Σ PAYMENT'e eşit tutulur. Bakiye hiçbir zaman
// okunup mutlak değer olarak yazılmaz; sadece "balance = balance + delta".
package cari

import (
	"context"
	"errors"
	"time"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Entry struct {
	CustomerID  uint
	BranchID    uint
	Type        models.CariTransactionType
	Amount      decimal.Decimal
	Description string
	OrderID     *uint
	UserID      uint
}

type Posting struct {
	Account     models.Cari
	Transaction models.CariTransaction
}

type Ledger struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewLedger(db *gorm.DB, log zerolog.Logger) *Ledger {
	return &Ledger{db: db, log: log.With().Str("component", "cari").Logger()}
}

func (l *Ledger) RecordDebit(ctx context.Context, e Entry) (*Posting, error) {
	e.Type = models.CariDebit
	return l.record(ctx, e)
}

func (l *Ledger) RecordPayment(ctx context.Context, e Entry) (*Posting, error) {
	e.Type = models.CariPayment
	return l.record(ctx, e)
}

func (l *Ledger) record(ctx context.Context, e Entry) (*Posting, error) {
	var posting *Posting
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := Apply(tx, e)
		if err != nil {
			return err
		}
		posting = p
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.Persistence("cari işlemi kaydedilemedi", err)
		}
		return nil, err
	}

	l.log.Info().
		Uint("customer_id", e.CustomerID).
		Uint("branch_id", e.BranchID).
		Str("type", string(e.Type)).
		Str("amount", e.Amount.StringFixed(2)).
		Str("balance", posting.Account.Balance.StringFixed(2)).
		Msg("cari işlemi kaydedildi")
	return posting, nil
}

// Apply: açık bir transaction içinde cari satırını upsert eder ve hareketi ekler.
// Satır yoksa işaretli tutarla (DEBIT → +, PAYMENT → −) oluşturulur.
func Apply(tx *gorm.DB, e Entry) (*Posting, error) {
	if e.CustomerID == 0 {
		return nil, apperr.Validation("customer_id zorunlu")
	}
	if e.BranchID == 0 {
		return nil, apperr.Validation("branch_id zorunlu")
	}
	// kolonlar numeric(14,2); 0.004 gibi tutarlar 0.00'a düşer
	e.Amount = e.Amount.Round(2)
	if !e.Amount.IsPositive() {
		return nil, apperr.Validation("tutar 0'dan büyük olmalı")
	}
	delta, err := e.Type.Delta(e.Amount)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}

	var customer models.Customer
	if err := tx.Select("id").First(&customer, e.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.EntityCustomer, e.CustomerID)
		}
		return nil, apperr.Persistence("müşteri okunamadı", err)
	}

	account := models.Cari{
		CustomerID: e.CustomerID,
		BranchID:   e.BranchID,
		Balance:    delta,
	}
	upsert := clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "branch_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance":    gorm.Expr("cari_accounts.balance + ?", delta),
			"updated_at": time.Now(),
		}),
	}
	if err := tx.Omit("Customer", "Branch").Clauses(upsert).Create(&account).Error; err != nil {
		return nil, apperr.Persistence("cari hesabı güncellenemedi", err)
	}

	// upsert sonrası güncel satır (id + bakiye)
	if err := tx.Where("customer_id = ? AND branch_id = ?", e.CustomerID, e.BranchID).First(&account).Error; err != nil {
		return nil, apperr.Persistence("cari hesabı okunamadı", err)
	}

	movement := models.CariTransaction{
		CariID:      account.ID,
		CustomerID:  e.CustomerID,
		BranchID:    e.BranchID,
		Type:        e.Type,
		Amount:      e.Amount,
		Description: e.Description,
		OrderID:     e.OrderID,
		UserID:      e.UserID,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, apperr.Persistence("cari hareketi kaydedilemedi", err)
	}

	return &Posting{Account: account, Transaction: movement}, nil
}

// Balance: hesap yoksa sıfır
func (l *Ledger) Balance(ctx context.Context, customerID, branchID uint) (decimal.Decimal, error) {
	var account models.Cari
	err := l.db.WithContext(ctx).Where("customer_id = ? AND branch_id = ?", customerID, branchID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, apperr.Persistence("bakiye okunamadı", err)
	}
	return account.Balance, nil
}

func (l *Ledger) Transactions(ctx context.Context, customerID, branchID uint, limit int) ([]models.CariTransaction, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var txs []models.CariTransaction
	err := l.db.WithContext(ctx).
		Where("customer_id = ? AND branch_id = ?", customerID, branchID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, apperr.Persistence("cari hareketleri listelenemedi", err)
	}
	return txs, nil
}

// Accounts: şubenin tüm cari hesapları (bakiyesi sıfır olanlar dahil)
func (l *Ledger) Accounts(ctx context.Context, branchID uint) ([]models.Cari, error) {
	var accounts []models.Cari
	err := l.db.WithContext(ctx).
		Preload("Customer").
		Where("branch_id = ?", branchID).
		Order("balance desc").
		Find(&accounts).Error
	if err != nil {
		return nil, apperr.Persistence("cari hesaplar listelenemedi", err)
	}
	return accounts, nil
}
