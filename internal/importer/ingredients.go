// Package importer: Excel (xlsx) ile toplu hammadde aktarımı ve stok raporu.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/catalog"
	"kahve-backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type Importer struct {
	db  *gorm.DB
	log zerolog.Logger
}

func New(db *gorm.DB, log zerolog.Logger) *Importer {
	return &Importer{db: db, log: log.With().Str("component", "importer").Logger()}
}

type RowError struct {
	Row     int    `json:"row"` // Excel satır numarası (1'den başlar)
	Name    string `json:"name"`
	Message string `json:"message"`
}

type Result struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped []RowError `json:"skipped"`
}

// kolonlar: ad, birim, stok, min stok, birim maliyet
type row struct {
	line        int
	name        string
	unit        string
	stock       *decimal.Decimal
	minStock    *decimal.Decimal
	costPerUnit *decimal.Decimal
}

// ImportIngredients: ilk sayfadaki satırları normalize edilmiş isme göre
// ekler veya günceller. Stok kolonu doluysa sayım düzeltmesi olarak yazılır.
// Hatalı satırlar atlanır, diğerleri tek transaction'da yazılır.
func (im *Importer) ImportIngredients(ctx context.Context, r io.Reader, userID uint, branchID *uint) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("Excel dosyası okunamadı: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation("Excel dosyasında sayfa bulunamadı")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Validation("sayfa okunamadı: %v", err)
	}

	res := &Result{Skipped: []RowError{}}
	rows := parseRows(raw, res)
	if len(rows) == 0 && len(res.Skipped) == 0 {
		return nil, apperr.Validation("Excel dosyası boş")
	}

	err = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Ingredient
		if err := tx.Find(&existing).Error; err != nil {
			return err
		}
		byName := make(map[string]*models.Ingredient, len(existing))
		for i := range existing {
			key := existing[i].NormalizedName
			if key == "" {
				key = catalog.NormalizeName(existing[i].Name)
			}
			byName[key] = &existing[i]
		}

		for _, rw := range rows {
			key := catalog.NormalizeName(rw.name)
			if ing, ok := byName[key]; ok {
				if err := updateIngredient(tx, ing, rw, userID, branchID); err != nil {
					return err
				}
				res.Updated++
				continue
			}
			if rw.unit == "" {
				res.Skipped = append(res.Skipped, RowError{Row: rw.line, Name: rw.name, Message: "yeni hammadde için birim zorunlu"})
				continue
			}
			ing := models.Ingredient{Name: rw.name, NormalizedName: key, Unit: rw.unit}
			if rw.stock != nil {
				ing.Stock = *rw.stock
			}
			if rw.minStock != nil {
				ing.MinStock = *rw.minStock
			}
			if rw.costPerUnit != nil {
				ing.CostPerUnit = *rw.costPerUnit
			}
			if err := tx.Create(&ing).Error; err != nil {
				return fmt.Errorf("%d. satır (%s): %w", rw.line, rw.name, err)
			}
			byName[key] = &ing
			res.Created++
		}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Persistence("hammaddeler aktarılamadı", err)
	}

	im.log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped", len(res.Skipped)).
		Msg("hammadde aktarımı tamamlandı")
	return res, nil
}

func updateIngredient(tx *gorm.DB, ing *models.Ingredient, rw row, userID uint, branchID *uint) error {
	updates := map[string]any{}
	if rw.unit != "" && rw.unit != ing.Unit {
		updates["unit"] = rw.unit
	}
	if rw.minStock != nil {
		updates["min_stock"] = *rw.minStock
	}
	if rw.costPerUnit != nil {
		updates["cost_per_unit"] = *rw.costPerUnit
	}
	if len(updates) > 0 {
		if err := tx.Model(&models.Ingredient{}).Where("id = ?", ing.ID).Updates(updates).Error; err != nil {
			return err
		}
	}
	if rw.stock == nil {
		return nil
	}

	var current models.Ingredient
	if err := tx.Select("id", "stock").First(&current, ing.ID).Error; err != nil {
		return err
	}
	delta := rw.stock.Sub(current.Stock)
	if delta.IsZero() {
		return nil
	}
	res := tx.Model(&models.Ingredient{}).Where("id = ? AND stock + ? >= 0", ing.ID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InsufficientStock(apperr.EntityIngredient, ing.ID, ing.Name)
	}
	return tx.Create(&models.IngredientMovement{
		IngredientID: ing.ID,
		BranchID:     branchID,
		Type:         models.MovementAdjustment,
		Quantity:     delta,
		UserID:       userID,
		Note:         "Excel aktarımı",
	}).Error
}

var headerNames = map[string]bool{
	"ad": true, "adi": true, "isim": true, "name": true,
	"hammadde": true, "hammadde adi": true, "malzeme": true, "malzeme adi": true,
	"birim": true, "unit": true,
}

func isHeader(cells []string) bool {
	for i := 0; i < len(cells) && i < 2; i++ {
		if headerNames[catalog.NormalizeName(cells[i])] {
			return true
		}
	}
	return false
}

func parseRows(raw [][]string, res *Result) []row {
	start := 0
	if len(raw) > 0 && isHeader(raw[0]) {
		start = 1
	}

	seen := map[string]int{}
	var out []row
	for i := start; i < len(raw); i++ {
		cells := raw[i]
		line := i + 1
		cell := func(idx int) string {
			if idx < len(cells) {
				return strings.TrimSpace(cells[idx])
			}
			return ""
		}

		name := strings.Join(strings.Fields(cell(0)), " ")
		if name == "" {
			continue
		}
		rw := row{line: line, name: name, unit: cell(1)}

		var bad string
		for idx, dst := range []**decimal.Decimal{&rw.stock, &rw.minStock, &rw.costPerUnit} {
			v, err := parseNumber(cell(idx + 2))
			if err != nil {
				bad = err.Error()
				break
			}
			if v != nil && v.IsNegative() {
				bad = "negatif değer olamaz"
				break
			}
			*dst = v
		}
		if bad != "" {
			res.Skipped = append(res.Skipped, RowError{Row: line, Name: name, Message: bad})
			continue
		}

		key := catalog.NormalizeName(name)
		if prev, ok := seen[key]; ok {
			res.Skipped = append(res.Skipped, RowError{Row: line, Name: name, Message: fmt.Sprintf("%d. satırla aynı hammadde", prev)})
			continue
		}
		seen[key] = line
		out = append(out, rw)
	}
	return out
}

// parseNumber: "1.234,5" / "1234.5" / "1,5" biçimlerini kabul eder. Boş hücre → nil.
func parseNumber(s string) (*decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("sayı okunamadı: %q", s)
	}
	return &v, nil
}
