package models

import "time"

type UserRole string

const (
	RoleSuperAdmin  UserRole = "super_admin"
	RoleBranchAdmin UserRole = "branch_admin"
	RoleCashier     UserRole = "cashier" // POS terminali / kasa
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleBranchAdmin, RoleCashier:
		return true
	}
	return false
}

// Branch: şube. Cari hesaplarda "merchant" olarak geçer.
type Branch struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:50"` // Opsiyonel telefon
	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User
}

// User: branch_admin ve cashier bir şubeye bağlıdır, super_admin bağlı değildir
type User struct {
	ID           uint `gorm:"primaryKey"`
	BranchID     *uint
	Branch       *Branch
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
