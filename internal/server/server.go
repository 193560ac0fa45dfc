// Package server: fiber uygulaması ve route tablosu.
package server

import (
	"strings"
	"time"

	"kahve-backend/internal/admin"
	"kahve-backend/internal/alerts"
	"kahve-backend/internal/apperr"
	"kahve-backend/internal/audit"
	"kahve-backend/internal/auth"
	"kahve-backend/internal/availability"
	"kahve-backend/internal/cari"
	"kahve-backend/internal/catalog"
	"kahve-backend/internal/checkout"
	"kahve-backend/internal/dashboard"
	"kahve-backend/internal/events"
	"kahve-backend/internal/importer"
	"kahve-backend/internal/metrics"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Options struct {
	DB          *gorm.DB
	Log         zerolog.Logger
	JWTSecret   string
	CORSOrigins string
	Location    *time.Location

	Audit   *audit.Recorder
	Events  events.Publisher
	Metrics *metrics.Metrics
	Alerts  *alerts.Scanner
}

// New: tüm servisleri kurar ve route'ları bağlar
func New(o Options) *fiber.App {
	if o.Location == nil {
		o.Location = time.Local
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler(o.Log),
		BodyLimit:    10 * 1024 * 1024, // xlsx yüklemeleri
	})

	// CORS origins'i virgülle ayrılmış string'den temizle
	origins := strings.Split(o.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(origins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Idempotent-Replayed",
	}))
	if o.Metrics != nil {
		app.Use(o.Metrics.Middleware())
		app.Get("/metrics", o.Metrics.Handler())
	}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	catalogSvc := catalog.NewService(o.DB, o.Log)
	availabilitySvc := availability.NewService(o.DB)
	engine := checkout.NewEngine(o.DB, o.Log, o.Audit, o.Events, o.Metrics)

	catalogH := &catalog.Handlers{Catalog: catalogSvc, Audit: o.Audit}
	cariH := &cari.Handlers{Ledger: cari.NewLedger(o.DB, o.Log), Audit: o.Audit, Events: o.Events}
	adminH := &admin.Handlers{DB: o.DB, Audit: o.Audit}
	importH := &importer.Handlers{Importer: importer.New(o.DB, o.Log), Audit: o.Audit}

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(o.DB))
	api.Post("/auth/login", auth.LoginHandler(o.DB, o.JWTSecret))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(o.JWTSecret))
	protected.Get("/auth/me", auth.MeHandler())

	// Katalog ve uygunluk (tüm roller)
	protected.Get("/products", availability.CatalogHandler(availabilitySvc))
	protected.Get("/products/:id/availability", availability.CheckHandler(availabilitySvc))
	protected.Get("/categories", catalogH.ListCategories())

	// Satış
	protected.Post("/checkout", checkout.CheckoutHandler(engine))
	protected.Get("/orders", checkout.ListOrdersHandler(engine))
	protected.Get("/orders/:id", checkout.GetOrderHandler(engine))

	// Cari
	protected.Post("/customers", cariH.CreateCustomer())
	protected.Get("/customers", cariH.ListCustomers())
	protected.Get("/cari", cariH.ListAccounts())
	protected.Get("/cari/:customerId", cariH.GetAccount())
	protected.Get("/cari/:customerId/transactions", cariH.GetAccount())
	protected.Post("/cari/payments", cariH.RecordPayment())

	// Şube yönetimi ve üstü
	manager := protected.Group("", auth.RequireRole(models.RoleSuperAdmin, models.RoleBranchAdmin))
	manager.Post("/cari/debits", cariH.RecordDebit())
	manager.Put("/customers/:id", cariH.UpdateCustomer())
	manager.Get("/ingredients", catalogH.ListIngredients())
	manager.Get("/ingredients/:id", catalogH.GetIngredient())
	manager.Get("/ingredients/:id/movements", catalogH.ListMovements())
	manager.Post("/ingredients/:id/purchases", catalogH.ReceivePurchase())
	manager.Post("/ingredients/:id/adjust", catalogH.AdjustStock())
	manager.Post("/waste-entries", catalogH.CreateWaste())
	manager.Get("/waste-entries", catalogH.ListWaste())
	manager.Get("/stock-alerts", alerts.Handler(o.Alerts))
	manager.Get("/dashboard/sales-chart", dashboard.SalesChartHandler(o.DB, o.Location))
	manager.Get("/audit-logs", audit.ListAuditLogsHandler(o.Audit))

	// Super admin routes
	adminRoutes := protected.Group("/admin", auth.RequireRole(models.RoleSuperAdmin))

	adminRoutes.Post("/users", auth.CreateUserHandler(o.DB))

	// Şube yönetimi
	adminRoutes.Post("/branches", adminH.CreateBranch())
	adminRoutes.Get("/branches", adminH.ListBranches())
	adminRoutes.Get("/branches/:id", adminH.GetBranch())
	adminRoutes.Put("/branches/:id", adminH.UpdateBranch())
	adminRoutes.Delete("/branches/:id", adminH.DeleteBranch())
	adminRoutes.Get("/branches/:id/users", adminH.ListBranchUsers())

	// Hammaddeler
	adminRoutes.Post("/ingredients", catalogH.CreateIngredient())
	adminRoutes.Put("/ingredients/:id", catalogH.UpdateIngredient())
	adminRoutes.Delete("/ingredients/:id", catalogH.DeleteIngredient())
	adminRoutes.Post("/ingredients/import", importH.ImportIngredients())
	adminRoutes.Get("/reports/stock.xlsx", importH.StockReport())

	// Ürünler ve kategoriler
	adminRoutes.Get("/products", catalogH.ListProducts())
	adminRoutes.Post("/products", catalogH.CreateProduct())
	adminRoutes.Put("/products/:id", catalogH.UpdateProduct())
	adminRoutes.Delete("/products/:id", catalogH.DeactivateProduct())
	adminRoutes.Post("/products/:id/restock", catalogH.RestockProduct())
	adminRoutes.Post("/categories", catalogH.CreateCategory())
	adminRoutes.Put("/categories/:id", catalogH.RenameCategory())
	adminRoutes.Delete("/categories/:id", catalogH.DeleteCategory())

	// Reçeteler
	adminRoutes.Get("/products/:id/recipes", catalogH.ListRecipes())
	adminRoutes.Put("/products/:id/recipes", catalogH.SaveRecipe())
	adminRoutes.Delete("/recipes/:id", catalogH.DeleteRecipe())

	return app
}
