package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Cari: müşteri + şube bazlı açık hesap. Balance = Σ DEBIT − Σ PAYMENT.
type Cari struct {
	ID         uint `gorm:"primaryKey"`
	CustomerID uint `gorm:"not null;uniqueIndex:idx_cari_customer_branch"`
	Customer   Customer
	BranchID   uint `gorm:"not null;uniqueIndex:idx_cari_customer_branch"`
	Branch     Branch
	Balance    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Cari) TableName() string {
	return "cari_accounts"
}

type CariTransactionType string

const (
	CariDebit   CariTransactionType = "DEBIT"   // satış: bakiye artar
	CariPayment CariTransactionType = "PAYMENT" // tahsilat: bakiye azalır
)

// Delta: işlemin bakiyeye etkisi
func (t CariTransactionType) Delta(amount decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case CariDebit:
		return amount, nil
	case CariPayment:
		return amount.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("bilinmeyen cari işlem tipi: %q", t)
	}
}

// CariTransaction: sadece eklenir, güncellenmez
type CariTransaction struct {
	ID          uint                `gorm:"primaryKey"`
	CariID      uint                `gorm:"index;not null"`
	CustomerID  uint                `gorm:"index;not null"`
	BranchID    uint                `gorm:"index;not null"`
	Type        CariTransactionType `gorm:"size:10;not null;index"`
	Amount      decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	Description string              `gorm:"size:255"`
	OrderID     *uint               `gorm:"index"`
	UserID      uint
	CreatedAt   time.Time `gorm:"index"`
}
