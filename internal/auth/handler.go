package auth

import (
	"errors"
	"strings"

	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterSuperAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
	BranchID *uint           `json:"branch_id"`
}

func RegisterSuperAdminHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterSuperAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}

		var count int64
		if err := db.Model(&models.User{}).
			Where("role = ?", models.RoleSuperAdmin).
			Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar sorgulanamadı")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Zaten bir super admin var")
		}

		user, err := createUser(db, body.Name, body.Email, body.Password, models.RoleSuperAdmin, nil)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		})
	}
}

// POST /api/admin/users (super_admin): şube yöneticisi veya kasiyer
func CreateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		if body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}
		if body.Role != models.RoleBranchAdmin && body.Role != models.RoleCashier {
			return fiber.NewError(fiber.StatusBadRequest, "role 'branch_admin' veya 'cashier' olmalı")
		}
		if body.BranchID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
		}
		var branch models.Branch
		if err := db.First(&branch, *body.BranchID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		user, err := createUser(db, body.Name, body.Email, body.Password, body.Role, body.BranchID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"branch_id": user.BranchID,
		})
	}
}

func createUser(db *gorm.DB, name, email, password string, role models.UserRole, branchID *uint) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
	}

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar sorgulanamadı")
	}
	if existing > 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "Bu email zaten kayıtlı")
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		BranchID:     branchID,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
	}
	return &user, nil
}

func LoginHandler(db *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := db.Where("email = ?", body.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı sorgulanamadı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		token, err := GenerateToken(secret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":        user.ID,
				"name":      user.Name,
				"email":     user.Email,
				"role":      user.Role,
				"branch_id": user.BranchID,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := CurrentActor(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"user_id":   actor.UserID,
			"name":      actor.Name,
			"email":     actor.Email,
			"role":      actor.Role,
			"branch_id": actor.BranchID,
		})
	}
}
