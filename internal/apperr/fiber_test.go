package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerStatusAndReason(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	app.Get("/stock", func(c *fiber.Ctx) error { return InsufficientStock(EntityIngredient, 1, "Bardak") })
	app.Get("/product", func(c *fiber.Ctx) error { return NotFound(EntityProduct, 9) })
	app.Get("/db", func(c *fiber.Ctx) error { return Persistence("x", errors.New("pq: boom")) })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusForbidden, "yasak") })

	cases := []struct {
		path   string
		status int
		reason string
	}{
		{"/stock", http.StatusConflict, "insufficient-stock"},
		{"/product", http.StatusNotFound, "invalid-product"},
		{"/db", http.StatusInternalServerError, "internal"},
		{"/fiber", http.StatusForbidden, ""},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, tc.reason, body["reason"], tc.path)
		assert.NotContains(t, body["error"], "pq:", tc.path)
	}
}
