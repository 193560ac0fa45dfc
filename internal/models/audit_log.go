package models

import "time"

type AuditAction string

const (
	AuditActionCreate   AuditAction = "create"
	AuditActionUpdate   AuditAction = "update"
	AuditActionDelete   AuditAction = "delete"
	AuditActionCheckout AuditAction = "checkout"
	AuditActionPayment  AuditAction = "payment"
	AuditActionPurchase AuditAction = "purchase"
	AuditActionWaste    AuditAction = "waste"
	AuditActionAdjust   AuditAction = "adjust"
	AuditActionImport   AuditAction = "import"
)

// AuditLog: sadece eklenir. Toplu sıfırlama scriptleri dışında silinmez/güncellenmez.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Hangi şube?
	BranchID *uint `gorm:"index" json:"branch_id"`

	// Hangi kullanıcı?
	UserID    uint   `json:"user_id"`
	UserName  string `gorm:"size:100" json:"user_name"`  // denormalize
	UserEmail string `gorm:"size:100" json:"user_email"` // denormalize

	// Hangi entity? (ör: "order", "ingredient", "cari", "recipe")
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action AuditAction `gorm:"size:20" json:"action"`

	// Opsiyonel açıklama (küçük bir özet)
	Description string `gorm:"size:255" json:"description"`

	// Önceki ve sonraki hal (JSON)
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
