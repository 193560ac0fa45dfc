package admin

import (
	"errors"
	"strconv"
	"strings"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/audit"
	"kahve-backend/internal/auth"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BranchResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

type CreateBranchRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"` // Opsiyonel
}

type UpdateBranchRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

type BranchUserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	BranchID  *uint  `json:"branch_id"`
	CreatedAt string `json:"created_at"`
}

type Handlers struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

func toBranchResponse(b models.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (h *Handlers) findBranch(c *fiber.Ctx) (*models.Branch, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz şube ID")
	}
	var branch models.Branch
	if err := h.DB.WithContext(c.UserContext()).First(&branch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.EntityBranch, uint(id))
		}
		return nil, apperr.Persistence("şube okunamadı", err)
	}
	return &branch, nil
}

func (h *Handlers) record(c *fiber.Ctx, id uint, action models.AuditAction, desc string, before, after any) {
	actor, err := auth.CurrentActor(c)
	if err != nil {
		return
	}
	opts := audit.FromActor(actor, &id)
	opts.EntityType = "branch"
	opts.EntityID = id
	opts.Action = action
	opts.Description = desc
	opts.Before = before
	opts.After = after
	h.Audit.Record(opts)
}

// ----------------------------------------
// ŞUBE CRUD
// ----------------------------------------

func (h *Handlers) CreateBranch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
		}

		branch := models.Branch{
			Name:    body.Name,
			Address: strings.TrimSpace(body.Address),
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}

		db := h.DB.WithContext(c.UserContext())
		var count int64
		db.Model(&models.Branch{}).Where("name = ?", branch.Name).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde bir şube zaten var")
		}
		if err := db.Create(&branch).Error; err != nil {
			return apperr.Persistence("şube oluşturulamadı", err)
		}

		resp := toBranchResponse(branch)
		h.record(c, branch.ID, models.AuditActionCreate, "Şube oluşturuldu: "+branch.Name, nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

func (h *Handlers) ListBranches() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := h.DB.WithContext(c.UserContext()).Order("name asc").Find(&branches).Error; err != nil {
			return apperr.Persistence("şubeler listelenemedi", err)
		}

		res := make([]BranchResponse, 0, len(branches))
		for _, b := range branches {
			res = append(res, toBranchResponse(b))
		}
		return c.JSON(res)
	}
}

func (h *Handlers) GetBranch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := h.findBranch(c)
		if err != nil {
			return err
		}
		return c.JSON(toBranchResponse(*branch))
	}
}

func (h *Handlers) UpdateBranch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := h.findBranch(c)
		if err != nil {
			return err
		}
		before := toBranchResponse(*branch)

		var body UpdateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
			}
			branch.Name = name
		}
		if body.Address != nil {
			branch.Address = strings.TrimSpace(*body.Address)
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := h.DB.WithContext(c.UserContext()).Save(branch).Error; err != nil {
			return apperr.Persistence("şube güncellenemedi", err)
		}

		after := toBranchResponse(*branch)
		h.record(c, branch.ID, models.AuditActionUpdate, "Şube güncellendi: "+branch.Name, before, after)
		return c.JSON(after)
	}
}

// DeleteBranch: satış, cari hesap veya kullanıcısı olan şube silinemez
func (h *Handlers) DeleteBranch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := h.findBranch(c)
		if err != nil {
			return err
		}
		db := h.DB.WithContext(c.UserContext())

		for _, ref := range []struct {
			model any
			what  string
		}{
			{&models.Order{}, "satış"},
			{&models.Cari{}, "cari hesap"},
			{&models.User{}, "kullanıcı"},
		} {
			var n int64
			if err := db.Model(ref.model).Where("branch_id = ?", branch.ID).Count(&n).Error; err != nil {
				return apperr.Persistence("şube kontrol edilemedi", err)
			}
			if n > 0 {
				return apperr.Validation("şubeye bağlı %d %s kaydı var, silinemez", n, ref.what)
			}
		}

		if err := db.Delete(&models.Branch{}, branch.ID).Error; err != nil {
			return apperr.Persistence("şube silinemedi", err)
		}
		h.record(c, branch.ID, models.AuditActionDelete, "Şube silindi: "+branch.Name, toBranchResponse(*branch), nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// ŞUBE KULLANICILARI
// GET /api/admin/branches/:id/users
// ----------------------------------------

func (h *Handlers) ListBranchUsers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := h.findBranch(c)
		if err != nil {
			return err
		}

		var users []models.User
		if err := h.DB.WithContext(c.UserContext()).
			Where("branch_id = ?", branch.ID).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return apperr.Persistence("kullanıcılar listelenemedi", err)
		}

		res := make([]BranchUserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, BranchUserResponse{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Role:      string(u.Role),
				BranchID:  u.BranchID,
				CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}
