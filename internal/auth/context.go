package auth

import (
	"fmt"

	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Actor: işlemi yapan kullanıcı (audit log ve cari kayıtları için)
type Actor struct {
	UserID   uint
	Name     string
	Email    string
	Role     models.UserRole
	BranchID *uint
}

func CurrentActor(c *fiber.Ctx) (Actor, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}
	a := Actor{UserID: userID, Role: role}
	a.Name, _ = c.Locals(CtxUserNameKey).(string)
	a.Email, _ = c.Locals(CtxUserEmailKey).(string)
	if bPtr, ok := c.Locals(CtxBranchIDKey).(*uint); ok && bPtr != nil {
		a.BranchID = bPtr
	}
	return a, nil
}

// ResolveBranchID: şube yöneticisi ve kasiyer kendi şubesine bağlıdır,
// super_admin şubeyi istekte belirtir.
func ResolveBranchID(c *fiber.Ctx, requested *uint) (uint, error) {
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role != models.RoleSuperAdmin {
		bPtr, ok := c.Locals(CtxBranchIDKey).(*uint)
		if !ok || bPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
		}
		if requested != nil && *requested != *bPtr {
			return 0, fiber.NewError(fiber.StatusForbidden, "Sadece kendi şubenizde işlem yapabilirsiniz")
		}
		return *bPtr, nil
	}

	if requested == nil || *requested == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
	}
	return *requested, nil
}

// ResolveBranchIDFromQuery: ?branch_id=... + rol
func ResolveBranchIDFromQuery(c *fiber.Ctx) (uint, error) {
	var requested *uint
	if bidStr := c.Query("branch_id"); bidStr != "" {
		var bid uint
		if _, err := fmt.Sscan(bidStr, &bid); err != nil || bid == 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
		}
		requested = &bid
	}
	return ResolveBranchID(c, requested)
}
