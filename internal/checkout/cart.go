package checkout

import (
	"strings"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Line: sepet satırı
type Line struct {
	ProductID uint             `json:"product_id"`
	Size      string           `json:"size"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	BuyPrice  *decimal.Decimal `json:"buy_price"` // boşsa reçete maliyeti / ürün maliyeti
}

// Cart: kasadan gelen sipariş. Tutarlar istemcide hesaplanır, burada doğrulanır.
type Cart struct {
	BranchID       uint                 `json:"branch_id"`
	CustomerID     *uint                `json:"customer_id"`
	Lines          []Line               `json:"items"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	Discount       decimal.Decimal      `json:"discount"`
	FinalAmount    decimal.Decimal      `json:"final_amount"`
	IdempotencyKey string               `json:"idempotency_key"`
	Note           string               `json:"note"`

	UserID    uint   `json:"-"`
	UserName  string `json:"-"`
	UserEmail string `json:"-"`
}

const maxIdempotencyKeyLen = 100

// Validate: transaction başlamadan önce yapılan kontroller.
// Tutarlar verilmediyse (hepsi 0) satırlardan hesaplanır.
func (c *Cart) Validate() error {
	if c.BranchID == 0 {
		return apperr.Validation("branch_id zorunlu")
	}
	if len(c.Lines) == 0 {
		return apperr.Validation("sepette en az bir ürün olmalı")
	}
	c.PaymentMethod = models.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(c.PaymentMethod))))
	if !c.PaymentMethod.Valid() {
		return apperr.Validation("geçersiz ödeme yöntemi: %q", c.PaymentMethod)
	}
	if c.PaymentMethod.IsDeferred() && (c.CustomerID == nil || *c.CustomerID == 0) {
		return apperr.Validation("cari satışta müşteri seçilmeli")
	}
	c.IdempotencyKey = strings.TrimSpace(c.IdempotencyKey)
	if len(c.IdempotencyKey) > maxIdempotencyKeyLen {
		return apperr.Validation("idempotency key en fazla %d karakter olabilir", maxIdempotencyKeyLen)
	}

	total := decimal.Zero
	for i := range c.Lines {
		l := &c.Lines[i]
		if l.ProductID == 0 {
			return apperr.Validation("%d. satır: product_id zorunlu", i+1)
		}
		if l.Quantity <= 0 {
			return apperr.Validation("%d. satır: adet 0'dan büyük olmalı", i+1)
		}
		if l.UnitPrice.IsNegative() {
			return apperr.Validation("%d. satır: birim fiyat negatif olamaz", i+1)
		}
		if l.BuyPrice != nil && l.BuyPrice.IsNegative() {
			return apperr.Validation("%d. satır: alış fiyatı negatif olamaz", i+1)
		}
		l.Size = models.NormalizeSize(l.Size)
		total = total.Add(l.lineTotal())
	}
	total = total.Round(2)

	if c.TotalAmount.IsZero() && c.FinalAmount.IsZero() && c.Discount.IsZero() {
		c.TotalAmount = total
		c.FinalAmount = total
	}
	if c.Discount.IsNegative() {
		return apperr.Validation("indirim negatif olamaz")
	}
	if !c.TotalAmount.Round(2).Equal(total) {
		return apperr.Validation("toplam tutar satırlarla uyuşmuyor (beklenen %s, gelen %s)", total.StringFixed(2), c.TotalAmount.StringFixed(2))
	}
	if c.Discount.GreaterThan(c.TotalAmount) {
		return apperr.Validation("indirim toplam tutardan büyük olamaz")
	}
	final := c.TotalAmount.Sub(c.Discount).Round(2)
	if !c.FinalAmount.Round(2).Equal(final) {
		return apperr.Validation("ödenecek tutar uyuşmuyor (beklenen %s, gelen %s)", final.StringFixed(2), c.FinalAmount.StringFixed(2))
	}
	if c.PaymentMethod.IsDeferred() && !c.FinalAmount.IsPositive() {
		return apperr.Validation("cari satış tutarı 0'dan büyük olmalı")
	}
	return nil
}

func (l Line) lineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
