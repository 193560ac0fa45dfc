package checkout

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/auth"
	"kahve-backend/internal/dbtest"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "checkout-test-secret-checkout-test-1"

func TestCheckoutEndpoint(t *testing.T) {
	f := newFixture(t)
	soda := dbtest.Product(t, f.db, "Soda", "25", "1")

	user := models.User{Name: "Kasa 1", Email: "kasa@test.local", PasswordHash: "x", Role: models.RoleCashier, BranchID: &f.branch.ID}
	require.NoError(t, f.db.Create(&user).Error)
	token, err := auth.GenerateToken(testSecret, &user)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zerolog.Nop())})
	api := app.Group("/api", auth.JWTMiddleware(testSecret))
	api.Post("/checkout", CheckoutHandler(f.engine))
	api.Get("/orders/:id", GetOrderHandler(f.engine))

	post := func(key string) (*http.Response, map[string]any) {
		body := fmt.Sprintf(`{"payment_method":"CASH","items":[{"product_id":%d,"quantity":1,"unit_price":"25"}],"total_amount":"25","final_amount":"25"}`, soda.ID)
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp, out
	}

	resp, body := post("tablet-7-0001")
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "25.00", body["final_amount"])
	firstID := body["id"]

	resp, body = post("tablet-7-0001")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, firstID, body["id"])

	resp, body = post("tablet-7-0002")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient-stock", body["reason"])

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/orders/%v", firstID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
