package audit

import (
	"fmt"

	"kahve-backend/internal/auth"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	BranchID    *uint              `json:"branch_id"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	UserEmail   string             `json:"user_email"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// GET /api/audit-logs?entity_type=order&entity_id=1&branch_id=1
func ListAuditLogsHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		var f Filter

		// Branch ID çöz
		if actor.Role != models.RoleSuperAdmin {
			if actor.BranchID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
			}
			f.BranchID = actor.BranchID
		} else if bidStr := c.Query("branch_id"); bidStr != "" {
			var bid uint
			if _, err := fmt.Sscan(bidStr, &bid); err == nil && bid > 0 {
				f.BranchID = &bid
			}
		}

		if s := c.Query("user_id"); s != "" {
			fmt.Sscan(s, &f.UserID)
		}
		if s := c.Query("entity_id"); s != "" {
			fmt.Sscan(s, &f.EntityID)
		}
		f.EntityType = c.Query("entity_type")
		f.Action = models.AuditAction(c.Query("action"))
		f.Limit = c.QueryInt("limit", 200)

		logs, err := rec.List(c.UserContext(), f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar listelenemedi")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
				BranchID:    log.BranchID,
				UserID:      log.UserID,
				UserName:    log.UserName,
				UserEmail:   log.UserEmail,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
				BeforeData:  log.BeforeData,
				AfterData:   log.AfterData,
			})
		}

		return c.JSON(resp)
	}
}

// FromActor: handler'lardaki tekrar eden LogOptions doldurma işi
func FromActor(a auth.Actor, branchID *uint) LogOptions {
	return LogOptions{
		BranchID:  branchID,
		UserID:    a.UserID,
		UserName:  a.Name,
		UserEmail: a.Email,
	}
}
