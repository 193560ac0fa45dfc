package cari

import (
	"context"
	"errors"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reconciliation: bakiye ile hareket toplamı arasındaki fark
type Reconciliation struct {
	CariID     uint            `json:"cari_id"`
	CustomerID uint            `json:"customer_id"`
	BranchID   uint            `json:"branch_id"`
	Balance    decimal.Decimal `json:"balance"`
	Expected   decimal.Decimal `json:"expected"`
	Drift      decimal.Decimal `json:"drift"`
	Fixed      bool            `json:"fixed"`
}

func (r Reconciliation) InSync() bool {
	return r.Drift.IsZero()
}

const expectedBalanceSQL = `SELECT COALESCE(SUM(CASE WHEN type = 'DEBIT' THEN amount ELSE -amount END), 0)
FROM cari_transactions WHERE cari_id = cari_accounts.id`

type typeTotal struct {
	Type  models.CariTransactionType
	Total decimal.Decimal
}

func (l *Ledger) expected(ctx context.Context, cariID uint) (decimal.Decimal, error) {
	var totals []typeTotal
	err := l.db.WithContext(ctx).
		Model(&models.CariTransaction{}).
		Select("type, SUM(amount) AS total").
		Where("cari_id = ?", cariID).
		Group("type").
		Scan(&totals).Error
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, t := range totals {
		delta, err := t.Type.Delta(t.Total)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(delta)
	}
	return sum, nil
}

// Reconcile: tek hesap. fix=true ise bakiye hareketlerden tek bir UPDATE ile yeniden hesaplanır.
func (l *Ledger) Reconcile(ctx context.Context, customerID, branchID uint, fix bool) (*Reconciliation, error) {
	var account models.Cari
	err := l.db.WithContext(ctx).Where("customer_id = ? AND branch_id = ?", customerID, branchID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(apperr.EntityCari, customerID)
	}
	if err != nil {
		return nil, apperr.Persistence("cari hesabı okunamadı", err)
	}
	return l.reconcileAccount(ctx, account, fix)
}

func (l *Ledger) reconcileAccount(ctx context.Context, account models.Cari, fix bool) (*Reconciliation, error) {
	expected, err := l.expected(ctx, account.ID)
	if err != nil {
		return nil, apperr.Persistence("cari hareket toplamı hesaplanamadı", err)
	}

	r := &Reconciliation{
		CariID:     account.ID,
		CustomerID: account.CustomerID,
		BranchID:   account.BranchID,
		Balance:    account.Balance,
		Expected:   expected,
		Drift:      account.Balance.Sub(expected),
	}
	if r.InSync() || !fix {
		return r, nil
	}

	err = l.db.WithContext(ctx).Exec(
		"UPDATE cari_accounts SET balance = ("+expectedBalanceSQL+") WHERE id = ?", account.ID,
	).Error
	if err != nil {
		return nil, apperr.Persistence("cari bakiyesi düzeltilemedi", err)
	}
	r.Fixed = true
	l.log.Warn().
		Uint("cari_id", account.ID).
		Str("balance", r.Balance.StringFixed(2)).
		Str("expected", r.Expected.StringFixed(2)).
		Msg("cari bakiyesi hareketlerden yeniden hesaplandı")
	return r, nil
}

// ReconcileAll: sadece farkı olan hesapları döner
func (l *Ledger) ReconcileAll(ctx context.Context, fix bool) ([]Reconciliation, error) {
	var accounts []models.Cari
	if err := l.db.WithContext(ctx).Order("id").Find(&accounts).Error; err != nil {
		return nil, apperr.Persistence("cari hesaplar okunamadı", err)
	}

	var drifted []Reconciliation
	for _, account := range accounts {
		r, err := l.reconcileAccount(ctx, account, fix)
		if err != nil {
			return drifted, err
		}
		if !r.InSync() {
			drifted = append(drifted, *r)
		}
	}
	return drifted, nil
}
