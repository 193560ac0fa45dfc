package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type PriceKind string

const (
	PriceFlat   PriceKind = "flat"   // tek fiyat
	PriceTiered PriceKind = "tiered" // boyuta göre fiyat (S/M/L)
)

type PriceTier struct {
	Size   string          `json:"size"`
	Amount decimal.Decimal `json:"amount"`
}

// PriceSpec: Flat(amount) | Tiered([{size, amount}]).
// DB'de jsonb olarak saklanır, sınırda Validate ile doğrulanır.
type PriceSpec struct {
	Kind   PriceKind       `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Tiers  []PriceTier     `json:"tiers,omitempty"`
}

func FlatPrice(amount decimal.Decimal) PriceSpec {
	return PriceSpec{Kind: PriceFlat, Amount: amount}
}

func TieredPrice(tiers ...PriceTier) PriceSpec {
	normalized := make([]PriceTier, 0, len(tiers))
	for _, t := range tiers {
		normalized = append(normalized, PriceTier{Size: NormalizeSize(t.Size), Amount: t.Amount})
	}
	return PriceSpec{Kind: PriceTiered, Tiers: normalized}
}

func (p PriceSpec) Validate() error {
	switch p.Kind {
	case PriceFlat:
		if p.Amount.IsNegative() {
			return errors.New("fiyat negatif olamaz")
		}
		if len(p.Tiers) > 0 {
			return errors.New("sabit fiyatta boyut listesi olamaz")
		}
		return nil
	case PriceTiered:
		if len(p.Tiers) == 0 {
			return errors.New("boyutlu fiyatta en az bir boyut olmalı")
		}
		seen := make(map[string]bool, len(p.Tiers))
		for _, t := range p.Tiers {
			size := NormalizeSize(t.Size)
			if size == GenericSize {
				return errors.New("boyut adı boş olamaz")
			}
			if seen[size] {
				return fmt.Errorf("boyut tekrar ediyor: %s", size)
			}
			seen[size] = true
			if t.Amount.IsNegative() {
				return fmt.Errorf("%s fiyatı negatif olamaz", size)
			}
		}
		return nil
	default:
		return fmt.Errorf("bilinmeyen fiyat tipi: %q", p.Kind)
	}
}

// For: verilen boyutun satış fiyatı. Sabit fiyatta boyut dikkate alınmaz.
func (p PriceSpec) For(size string) (decimal.Decimal, bool) {
	switch p.Kind {
	case PriceFlat:
		return p.Amount, true
	case PriceTiered:
		size = NormalizeSize(size)
		for _, t := range p.Tiers {
			if NormalizeSize(t.Size) == size {
				return t.Amount, true
			}
		}
	}
	return decimal.Zero, false
}

func (p PriceSpec) Sizes() []string {
	if p.Kind != PriceTiered {
		return nil
	}
	sizes := make([]string, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		sizes = append(sizes, NormalizeSize(t.Size))
	}
	return sizes
}

func (p PriceSpec) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PriceSpec) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*p = PriceSpec{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("PriceSpec için desteklenmeyen tip: %T", value)
	}
	return json.Unmarshal(raw, p)
}
