package checkout

import (
	"strconv"
	"strings"
	"time"

	"kahve-backend/internal/auth"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type OrderItemResponse struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	BuyPrice    string `json:"buy_price"`
	Total       string `json:"total"`
}

type OrderResponse struct {
	ID            uint                `json:"id"`
	Number        string              `json:"number"`
	BranchID      uint                `json:"branch_id"`
	CustomerID    *uint               `json:"customer_id"`
	Status        string              `json:"status"`
	PaymentMethod string              `json:"payment_method"`
	TotalAmount   string              `json:"total_amount"`
	Discount      string              `json:"discount"`
	FinalAmount   string              `json:"final_amount"`
	Note          string              `json:"note"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     string              `json:"created_at"`
}

func toOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Size:        it.Size,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			BuyPrice:    it.BuyPrice.StringFixed(2),
			Total:       it.Total.StringFixed(2),
		})
	}
	return OrderResponse{
		ID:            o.ID,
		Number:        o.Number,
		BranchID:      o.BranchID,
		CustomerID:    o.CustomerID,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Discount:      o.Discount.StringFixed(2),
		FinalAmount:   o.FinalAmount.StringFixed(2),
		Note:          o.Note,
		Items:         items,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
}

type CheckoutRequest struct {
	Cart
	BranchID *uint `json:"branch_id"` // super_admin için
}

// POST /api/checkout
// Idempotency-Key header'ı veya gövdedeki idempotency_key ile tekrar gönderim
// yeni sipariş oluşturmaz (200 + mevcut sipariş).
func CheckoutHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CheckoutRequest
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

		cart := body.Cart
		cart.BranchID = branchID
		cart.UserID = actor.UserID
		cart.UserName = actor.Name
		cart.UserEmail = actor.Email
		if key := strings.TrimSpace(c.Get("Idempotency-Key")); key != "" {
			cart.IdempotencyKey = key
		}

		order, replayed, err := engine.CheckoutWithStatus(c.UserContext(), cart)
		if err != nil {
			return err
		}
		status := fiber.StatusCreated
		if replayed {
			status = fiber.StatusOK
			c.Set("Idempotent-Replayed", "true")
		}
		return c.Status(status).JSON(toOrderResponse(order))
	}
}

// GET /api/orders?branch_id=&from=&to=&payment_method=&customer_id=&limit=
func ListOrdersHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}
		f := OrderFilter{
			BranchID:      branchID,
			PaymentMethod: models.PaymentMethod(strings.ToUpper(c.Query("payment_method"))),
			Limit:         c.QueryInt("limit", 100),
		}
		if f.PaymentMethod != "" && !f.PaymentMethod.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "payment_method geçersiz")
		}
		if v := c.Query("from"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from formatı 'YYYY-MM-DD' olmalı")
			}
			f.From = &t
		}
		if v := c.Query("to"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to formatı 'YYYY-MM-DD' olmalı")
			}
			t = t.AddDate(0, 0, 1)
			f.To = &t
		}
		if v := c.QueryInt("customer_id", 0); v > 0 {
			id := uint(v)
			f.CustomerID = &id
		}

		orders, err := engine.ListOrders(c.UserContext(), f)
		if err != nil {
			return err
		}
		resp := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toOrderResponse(&orders[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/orders/:id?branch_id=
func GetOrderHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}
		order, err := engine.GetOrder(c.UserContext(), uint(id), branchID)
		if err != nil {
			return err
		}
		return c.JSON(toOrderResponse(order))
	}
}
