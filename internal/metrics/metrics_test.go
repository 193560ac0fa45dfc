package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kahve-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoutePattern(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/orders/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return apperr.NotFound(apperr.EntityOrder, 1) })

	for _, path := range []string{"/api/orders/1", "/api/orders/2", "/missing"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/orders/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/missing", "404")))
}

func TestCheckoutAndGauge(t *testing.T) {
	m := New()
	m.ObserveCheckout(ResultSuccess, 10*time.Millisecond)
	m.ObserveCheckout(ResultSuccess, 5*time.Millisecond)
	m.ObserveCheckout(ResultInsufficientStock, time.Millisecond)
	m.SetLowStock("ingredient", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CheckoutTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutTotal.WithLabelValues(ResultInsufficientStock)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LowStockItems.WithLabelValues("ingredient")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.ObserveCheckout(ResultError, time.Second)
		nilMetrics.SetLowStock("product", 1)
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveCheckout(ResultSuccess, time.Millisecond)

	app := fiber.New()
	app.Get("/metrics", m.Handler())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `checkout_total{result="success"} 1`)
}
