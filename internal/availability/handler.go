package availability

import (
	"kahve-backend/internal/auth"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/products (?all=true pasif ürünleri de getirir, sadece yöneticiler)
func CatalogHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		onlyActive := true
		if c.QueryBool("all", false) {
			role, _ := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
			if role == models.RoleCashier {
				return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
			}
			onlyActive = false
		}

		products, err := svc.Catalog(c.UserContext(), onlyActive)
		if err != nil {
			return err
		}
		return c.JSON(products)
	}
}

// GET /api/products/:id/availability?size=M
func CheckHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		v, err := svc.Check(c.UserContext(), uint(id), c.Query("size"))
		if err != nil {
			return err
		}
		return c.JSON(v)
	}
}
