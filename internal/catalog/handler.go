package catalog

import (
	"fmt"
	"strconv"
	"time"

	"kahve-backend/internal/audit"
	"kahve-backend/internal/auth"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Catalog *Service
	Audit   *audit.Recorder
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
	}
	return uint(id), nil
}

// record: işlemi yapan kullanıcı bilgisiyle audit kaydı (asenkron)
func (h *Handlers) record(c *fiber.Ctx, branchID *uint, entity string, id uint, action models.AuditAction, desc string, before, after any) {
	actor, err := auth.CurrentActor(c)
	if err != nil {
		return
	}
	if branchID == nil {
		branchID = actor.BranchID
	}
	opts := audit.FromActor(actor, branchID)
	opts.EntityType = entity
	opts.EntityID = id
	opts.Action = action
	opts.Description = desc
	opts.Before = before
	opts.After = after
	h.Audit.Record(opts)
}

// ---- Hammaddeler ----

// GET /api/ingredients?q=...
func (h *Handlers) ListIngredients() fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := h.Catalog.ListIngredients(c.UserContext(), c.Query("q"))
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/ingredients/:id
func (h *Handlers) GetIngredient() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		ing, err := h.Catalog.GetIngredient(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(ing)
	}
}

// GET /api/ingredients/:id/movements?limit=...
func (h *Handlers) ListMovements() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		list, err := h.Catalog.Movements(c.UserContext(), id, c.QueryInt("limit", 200))
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/admin/ingredients
func (h *Handlers) CreateIngredient() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body IngredientInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		ing, err := h.Catalog.CreateIngredient(c.UserContext(), body)
		if err != nil {
			return err
		}
		h.record(c, nil, "ingredient", ing.ID, models.AuditActionCreate,
			fmt.Sprintf("Hammadde eklendi: %s", ing.Name), nil, ing)
		return c.Status(fiber.StatusCreated).JSON(ing)
	}
}

// PUT /api/admin/ingredients/:id
func (h *Handlers) UpdateIngredient() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body IngredientUpdate
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		before, after, err := h.Catalog.UpdateIngredient(c.UserContext(), id, body)
		if err != nil {
			return err
		}
		h.record(c, nil, "ingredient", id, models.AuditActionUpdate,
			fmt.Sprintf("Hammadde güncellendi: %s", after.Name), before, after)
		return c.JSON(after)
	}
}

// DELETE /api/admin/ingredients/:id
func (h *Handlers) DeleteIngredient() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		ing, err := h.Catalog.DeleteIngredient(c.UserContext(), id)
		if err != nil {
			return err
		}
		h.record(c, nil, "ingredient", id, models.AuditActionDelete,
			fmt.Sprintf("Hammadde silindi: %s", ing.Name), ing, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type StockChangeRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Note     string          `json:"note"`
	BranchID *uint           `json:"branch_id"` // super_admin için
}

// POST /api/ingredients/:id/purchases
func (h *Handlers) ReceivePurchase() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body StockChangeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		branchID := actor.BranchID
		if body.BranchID != nil {
			branchID = body.BranchID
		}

		ing, err := h.Catalog.ReceivePurchase(c.UserContext(), StockChange{
			IngredientID: id,
			BranchID:     branchID,
			Quantity:     body.Quantity,
			UnitCost:     body.UnitCost,
			UserID:       actor.UserID,
			Note:         body.Note,
		})
		if err != nil {
			return err
		}
		h.record(c, branchID, "ingredient", id, models.AuditActionPurchase,
			fmt.Sprintf("Alım: %s %s %s", ing.Name, body.Quantity.String(), ing.Unit), nil, ing)
		return c.JSON(ing)
	}
}

// POST /api/ingredients/:id/adjust  (quantity = sayılan mutlak stok)
func (h *Handlers) AdjustStock() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body StockChangeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		before, after, err := h.Catalog.Adjust(c.UserContext(), StockChange{
			IngredientID: id,
			BranchID:     actor.BranchID,
			Quantity:     body.Quantity,
			UserID:       actor.UserID,
			Note:         body.Note,
		})
		if err != nil {
			return err
		}
		h.record(c, nil, "ingredient", id, models.AuditActionAdjust,
			fmt.Sprintf("Sayım düzeltmesi: %s %s → %s", after.Name, before.Stock.String(), after.Stock.String()), before, after)
		return c.JSON(after)
	}
}

type WasteRequest struct {
	IngredientID uint            `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Date         string          `json:"date"` // "2025-12-09", boşsa bugün
	Note         string          `json:"note"`
	BranchID     *uint           `json:"branch_id"`
}

// POST /api/waste-entries
func (h *Handlers) CreateWaste() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body WasteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.IngredientID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ingredient_id zorunludur")
		}
		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		var date time.Time
		if body.Date != "" {
			if date, err = time.Parse("2006-01-02", body.Date); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
		}

		entry, err := h.Catalog.RecordWaste(c.UserContext(), StockChange{
			IngredientID: body.IngredientID,
			BranchID:     &branchID,
			Quantity:     body.Quantity,
			UserID:       actor.UserID,
			Note:         body.Note,
			Date:         date,
		})
		if err != nil {
			return err
		}
		h.record(c, &branchID, "waste_entry", entry.ID, models.AuditActionWaste,
			fmt.Sprintf("Zayiat: hammadde #%d - %s (Not: %s)", entry.IngredientID, entry.Quantity.String(), entry.Note), nil, entry)
		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// GET /api/waste-entries?branch_id=&from=&to=
func (h *Handlers) ListWaste() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}
		var from, to *time.Time
		if v := c.Query("from"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from formatı 'YYYY-MM-DD' olmalı")
			}
			from = &t
		}
		if v := c.Query("to"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to formatı 'YYYY-MM-DD' olmalı")
			}
			t = t.AddDate(0, 0, 1)
			to = &t
		}
		list, err := h.Catalog.ListWaste(c.UserContext(), branchID, from, to)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// ---- Ürünler ----

// GET /api/admin/products?category_id=
func (h *Handlers) ListProducts() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categoryID *uint
		if v := c.QueryInt("category_id", 0); v > 0 {
			id := uint(v)
			categoryID = &id
		}
		list, err := h.Catalog.ListProducts(c.UserContext(), categoryID)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/admin/products
func (h *Handlers) CreateProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		p, err := h.Catalog.CreateProduct(c.UserContext(), body)
		if err != nil {
			return err
		}
		h.record(c, nil, "product", p.ID, models.AuditActionCreate,
			fmt.Sprintf("Ürün eklendi: %s", p.Name), nil, p)
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// PUT /api/admin/products/:id
func (h *Handlers) UpdateProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body ProductUpdate
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		before, after, err := h.Catalog.UpdateProduct(c.UserContext(), id, body)
		if err != nil {
			return err
		}
		h.record(c, nil, "product", id, models.AuditActionUpdate,
			fmt.Sprintf("Ürün güncellendi: %s", after.Name), before, after)
		return c.JSON(after)
	}
}

// DELETE /api/admin/products/:id (pasife alır)
func (h *Handlers) DeactivateProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		p, err := h.Catalog.DeactivateProduct(c.UserContext(), id)
		if err != nil {
			return err
		}
		h.record(c, nil, "product", id, models.AuditActionUpdate,
			fmt.Sprintf("Ürün pasife alındı: %s", p.Name), nil, p)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/products/:id/restock
func (h *Handlers) RestockProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body StockChangeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		p, err := h.Catalog.RestockProduct(c.UserContext(), id, body.Quantity)
		if err != nil {
			return err
		}
		h.record(c, nil, "product", id, models.AuditActionPurchase,
			fmt.Sprintf("Ürün stok girişi: %s +%s", p.Name, body.Quantity.String()), nil, p)
		return c.JSON(p)
	}
}

// ---- Kategoriler ----

type CategoryRequest struct {
	Name string `json:"name"`
}

// GET /api/categories
func (h *Handlers) ListCategories() fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := h.Catalog.ListCategories(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/admin/categories
func (h *Handlers) CreateCategory() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		cat, err := h.Catalog.CreateCategory(c.UserContext(), body.Name)
		if err != nil {
			return err
		}
		h.record(c, nil, "category", cat.ID, models.AuditActionCreate, "Kategori eklendi: "+cat.Name, nil, cat)
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

// PUT /api/admin/categories/:id
func (h *Handlers) RenameCategory() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		cat, err := h.Catalog.RenameCategory(c.UserContext(), id, body.Name)
		if err != nil {
			return err
		}
		h.record(c, nil, "category", id, models.AuditActionUpdate, "Kategori güncellendi: "+cat.Name, nil, cat)
		return c.JSON(cat)
	}
}

// DELETE /api/admin/categories/:id
func (h *Handlers) DeleteCategory() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
			return err
		}
		h.record(c, nil, "category", id, models.AuditActionDelete, fmt.Sprintf("Kategori silindi (#%d)", id), nil, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ---- Reçeteler ----

type SaveRecipeRequest struct {
	Size  string            `json:"size"` // boş veya "Standart": jenerik
	Items []RecipeItemInput `json:"items"`
}

// GET /api/admin/products/:id/recipes
func (h *Handlers) ListRecipes() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		list, err := h.Catalog.ListRecipes(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// PUT /api/admin/products/:id/recipes
func (h *Handlers) SaveRecipe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body SaveRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		r, err := h.Catalog.SaveRecipe(c.UserContext(), id, body.Size, body.Items)
		if err != nil {
			return err
		}
		size := r.Size
		if size == models.GenericSize {
			size = "Standart"
		}
		h.record(c, nil, "recipe", r.ID, models.AuditActionUpdate,
			fmt.Sprintf("Reçete kaydedildi: ürün #%d (%s), %d kalem", id, size, len(r.Items)), nil, r)
		return c.JSON(r)
	}
}

// DELETE /api/admin/recipes/:id
func (h *Handlers) DeleteRecipe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		r, err := h.Catalog.DeleteRecipe(c.UserContext(), id)
		if err != nil {
			return err
		}
		h.record(c, nil, "recipe", id, models.AuditActionDelete,
			fmt.Sprintf("Reçete silindi: ürün #%d", r.ProductID), r, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
