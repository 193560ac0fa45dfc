package cari

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/audit"
	"kahve-backend/internal/auth"
	"kahve-backend/internal/events"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Ledger *Ledger
	Audit  *audit.Recorder
	Events events.Publisher
}

type CariEntryRequest struct {
	CustomerID  uint            `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	BranchID    *uint           `json:"branch_id"` // super_admin için
}

type CariAccountResponse struct {
	ID           uint   `json:"id"`
	CustomerID   uint   `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	BranchID     uint   `json:"branch_id"`
	Balance      string `json:"balance"`
	UpdatedAt    string `json:"updated_at"`
}

type CariTransactionResponse struct {
	ID          uint   `json:"id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	OrderID     *uint  `json:"order_id"`
	CreatedAt   string `json:"created_at"`
}

func toTransactionResponse(t models.CariTransaction) CariTransactionResponse {
	return CariTransactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		OrderID:     t.OrderID,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// POST /api/customers
func (h *Handlers) CreateCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CustomerInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		customer, err := h.Ledger.CreateCustomer(c.UserContext(), body)
		if err != nil {
			return err
		}

		opts := audit.FromActor(actor, actor.BranchID)
		opts.EntityType = "customer"
		opts.EntityID = customer.ID
		opts.Action = models.AuditActionCreate
		opts.Description = fmt.Sprintf("Müşteri eklendi: %s", customer.Name)
		opts.After = customer
		h.Audit.Record(opts)

		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

// PUT /api/customers/:id
func (h *Handlers) UpdateCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}
		var body CustomerInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		before, after, err := h.Ledger.UpdateCustomer(c.UserContext(), uint(id), body)
		if err != nil {
			return err
		}

		opts := audit.FromActor(actor, actor.BranchID)
		opts.EntityType = "customer"
		opts.EntityID = after.ID
		opts.Action = models.AuditActionUpdate
		opts.Description = fmt.Sprintf("Müşteri güncellendi: %s", after.Name)
		opts.Before = before
		opts.After = after
		h.Audit.Record(opts)

		return c.JSON(after)
	}
}

// GET /api/customers?q=...
func (h *Handlers) ListCustomers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		customers, err := h.Ledger.ListCustomers(c.UserContext(), c.Query("q"))
		if err != nil {
			return err
		}
		return c.JSON(customers)
	}
}

// GET /api/cari?branch_id=...
func (h *Handlers) ListAccounts() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}
		accounts, err := h.Ledger.Accounts(c.UserContext(), branchID)
		if err != nil {
			return err
		}
		resp := make([]CariAccountResponse, 0, len(accounts))
		for _, a := range accounts {
			resp = append(resp, CariAccountResponse{
				ID:           a.ID,
				CustomerID:   a.CustomerID,
				CustomerName: a.Customer.Name,
				BranchID:     a.BranchID,
				Balance:      a.Balance.StringFixed(2),
				UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
			})
		}
		return c.JSON(resp)
	}
}

// GET /api/cari/:customerId?branch_id=...
func (h *Handlers) GetAccount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		customerID, err := strconv.ParseUint(c.Params("customerId"), 10, 64)
		if err != nil || customerID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}
		customer, err := h.Ledger.GetCustomer(c.UserContext(), uint(customerID))
		if err != nil {
			return err
		}
		balance, err := h.Ledger.Balance(c.UserContext(), customer.ID, branchID)
		if err != nil {
			return err
		}
		txs, err := h.Ledger.Transactions(c.UserContext(), customer.ID, branchID, c.QueryInt("limit", 200))
		if err != nil {
			return err
		}
		items := make([]CariTransactionResponse, 0, len(txs))
		for _, t := range txs {
			items = append(items, toTransactionResponse(t))
		}
		return c.JSON(fiber.Map{
			"customer":     customer,
			"branch_id":    branchID,
			"balance":      balance.StringFixed(2),
			"transactions": items,
		})
	}
}

// POST /api/cari/payments
func (h *Handlers) RecordPayment() fiber.Handler {
	return h.recordEntry(models.CariPayment)
}

// POST /api/cari/debits (açılış bakiyesi, elle borç kaydı)
func (h *Handlers) RecordDebit() fiber.Handler {
	return h.recordEntry(models.CariDebit)
}

func (h *Handlers) recordEntry(kind models.CariTransactionType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CariEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		entry := Entry{
			CustomerID:  body.CustomerID,
			BranchID:    branchID,
			Amount:      body.Amount,
			Description: strings.TrimSpace(body.Description),
			UserID:      actor.UserID,
		}

		var posting *Posting
		switch kind {
		case models.CariPayment:
			posting, err = h.Ledger.RecordPayment(c.UserContext(), entry)
		case models.CariDebit:
			posting, err = h.Ledger.RecordDebit(c.UserContext(), entry)
		default:
			return apperr.Validation("bilinmeyen cari işlem tipi: %q", kind)
		}
		if err != nil {
			return err
		}

		action := models.AuditActionPayment
		eventType := events.TypeCariPayment
		label := "Tahsilat"
		if kind == models.CariDebit {
			action = models.AuditActionCreate
			eventType = events.TypeCariDebit
			label = "Borç kaydı"
		}

		opts := audit.FromActor(actor, &branchID)
		opts.EntityType = "cari"
		opts.EntityID = posting.Account.ID
		opts.Action = action
		opts.Description = fmt.Sprintf("%s: %s TL (müşteri #%d)", label, posting.Transaction.Amount.StringFixed(2), posting.Account.CustomerID)
		opts.Before = map[string]any{"balance": posting.Account.Balance.Sub(deltaOf(posting.Transaction)).StringFixed(2)}
		opts.After = map[string]any{"balance": posting.Account.Balance.StringFixed(2), "transaction_id": posting.Transaction.ID}
		h.Audit.Record(opts)

		h.Events.Publish(events.Event{
			Type:     eventType,
			Key:      strconv.FormatUint(uint64(posting.Transaction.ID), 10),
			BranchID: branchID,
			Payload:  toTransactionResponse(posting.Transaction),
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"transaction": toTransactionResponse(posting.Transaction),
			"balance":     posting.Account.Balance.StringFixed(2),
		})
	}
}

func deltaOf(t models.CariTransaction) decimal.Decimal {
	d, err := t.Type.Delta(t.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}
