package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetIngredients = "Hammaddeler"
	sheetProducts    = "Ürünler"
)

// ExportStockReport: hammadde ve reçetesiz ürün stoklarını xlsx olarak yazar.
// Minimum stok altındaki satırlar vurgulanır.
func (im *Importer) ExportStockReport(ctx context.Context, w io.Writer) error {
	db := im.db.WithContext(ctx)

	var ingredients []models.Ingredient
	if err := db.Order("name asc").Find(&ingredients).Error; err != nil {
		return apperr.Persistence("hammaddeler okunamadı", err)
	}
	var products []models.Product
	err := db.Where("NOT EXISTS (SELECT 1 FROM recipes WHERE recipes.product_id = products.id)").
		Order("name asc").Find(&products).Error
	if err != nil {
		return apperr.Persistence("ürünler okunamadı", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetIngredients); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetProducts); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	low, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FCE4D6"}},
	})
	if err != nil {
		return err
	}

	ingRows := make([][]any, 0, len(ingredients))
	ingLow := make([]bool, 0, len(ingredients))
	for _, ing := range ingredients {
		stock, _ := ing.Stock.Float64()
		minStock, _ := ing.MinStock.Float64()
		cost, _ := ing.CostPerUnit.Float64()
		value, _ := ing.Stock.Mul(ing.CostPerUnit).Round(2).Float64()
		ingRows = append(ingRows, []any{ing.Name, ing.Unit, stock, minStock, cost, value})
		ingLow = append(ingLow, ing.MinStock.IsPositive() && ing.Stock.LessThanOrEqual(ing.MinStock))
	}
	if err := writeSheet(f, sheetIngredients,
		[]any{"Hammadde", "Birim", "Stok", "Min Stok", "Birim Maliyet", "Stok Değeri"},
		ingRows, ingLow, header, low); err != nil {
		return err
	}

	prodRows := make([][]any, 0, len(products))
	prodLow := make([]bool, 0, len(products))
	for _, p := range products {
		stock, _ := p.Stock.Float64()
		minStock, _ := p.MinStock.Float64()
		active := "Evet"
		if !p.IsActive {
			active = "Hayır"
		}
		prodRows = append(prodRows, []any{p.Name, stock, minStock, active})
		prodLow = append(prodLow, p.MinStock.IsPositive() && p.Stock.LessThanOrEqual(p.MinStock))
	}
	if err := writeSheet(f, sheetProducts,
		[]any{"Ürün", "Stok", "Min Stok", "Aktif"},
		prodRows, prodLow, header, low); err != nil {
		return err
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Stok Raporu",
		Created: time.Now().Format(time.RFC3339),
	}); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, lowRows []bool, headerStyle, lowStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	for i, r := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
		if lowRows[i] {
			if err := f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, i+2), lowStyle); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sheet, "A", "A", 32)
}
