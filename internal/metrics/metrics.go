// Package metrics: Prometheus sayaçları ve fiber middleware'i.
package metrics

import (
	"strconv"
	"time"

	"kahve-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout sonuç etiketleri
const (
	ResultSuccess           = "success"
	ResultReplayed          = "replayed"
	ResultValidation        = "validation"
	ResultInsufficientStock = "insufficient_stock"
	ResultNotFound          = "not_found"
	ResultError             = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CheckoutTotal       *prometheus.CounterVec
	CheckoutDuration    prometheus.Histogram
	LowStockItems       *prometheus.GaugeVec
}

// New: her çağrı kendi registry'sini kullanır (testlerde çakışma olmaz)
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		CheckoutTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_total",
				Help: "Checkout attempts by result",
			},
			[]string{"result"},
		),
		CheckoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Duration of checkout transactions",
			Buckets: prometheus.DefBuckets,
		}),
		LowStockItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "low_stock_items",
				Help: "Items at or below their minimum stock",
			},
			[]string{"kind"}, // ingredient | product
		),
	}
	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CheckoutTotal,
		m.CheckoutDuration,
		m.LowStockItems,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCheckout: nil Metrics ile çağrılabilir
func (m *Metrics) ObserveCheckout(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.CheckoutTotal.WithLabelValues(result).Inc()
	m.CheckoutDuration.Observe(took.Seconds())
}

func (m *Metrics) SetLowStock(kind string, n int) {
	if m == nil {
		return
	}
	m.LowStockItems.WithLabelValues(kind).Set(float64(n))
}

// Middleware: route pattern'i (":id" ile) etiket olarak kullanır
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// hata cevabı ErrorHandler'da yazılır, kod burada hesaplanır
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = apperr.HTTPStatus(err)
			}
		}

		path := c.Route().Path
		if path == "" {
			path = "undefined"
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler: GET /metrics
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
