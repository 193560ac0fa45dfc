package importer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"kahve-backend/internal/audit"
	"kahve-backend/internal/auth"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Importer *Importer
	Audit    *audit.Recorder
}

// POST /api/admin/ingredients/import (multipart, "file" alanı .xlsx)
func (h *Handlers) ImportIngredients() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		res, err := h.Importer.ImportIngredients(c.UserContext(), file, actor.UserID, actor.BranchID)
		if err != nil {
			return err
		}

		opts := audit.FromActor(actor, actor.BranchID)
		opts.EntityType = "ingredient"
		opts.Action = models.AuditActionImport
		opts.Description = fmt.Sprintf("Excel aktarımı (%s): %d yeni, %d güncellendi, %d atlandı",
			fileHeader.Filename, res.Created, res.Updated, len(res.Skipped))
		opts.After = res
		h.Audit.Record(opts)

		return c.JSON(res)
	}
}

// GET /api/admin/reports/stock.xlsx
func (h *Handlers) StockReport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := h.Importer.ExportStockReport(c.UserContext(), &buf); err != nil {
			return err
		}
		name := fmt.Sprintf("stok-raporu-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Attachment(name)
		return c.Send(buf.Bytes())
	}
}
