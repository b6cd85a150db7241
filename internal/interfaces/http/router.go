package http

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/report"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	ItemUC     *usecase.ItemUseCase
	LocationUC *usecase.LocationUseCase
	UserUC     *usecase.UserUseCase
	LedgerUC   *ledger.LedgerUseCase
	ReportUC   *report.ReportUseCase
	JWTSecret  string

	// Users permite revalidar estado y rol del usuario del token; nil confía solo en el JWT.
	Users UserLookup

	// Idempotency puede ser nil: el header Idempotency-Key se ignora.
	Idempotency    IdempotencyStore
	IdempotencyTTL time.Duration
}

// AppConfig configuración de la app Fiber y de las rutas públicas.
type AppConfig struct {
	Name         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	SwaggerFile  string
	Logger       zerolog.Logger
	HTTPMetrics  requestObserver
	Gatherer     prometheus.Gatherer
	HealthCheck  func(ctx context.Context) error
}

// NewApp crea la app Fiber con middlewares, /health, /metrics, Swagger (si el archivo existe)
// y las rutas de la API.
func NewApp(cfg AppConfig, deps RouterDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorHandler: ErrorHandler,
	})
	app.Use(requestid.New())
	app.Use(RequestLogger(cfg.Logger, cfg.HTTPMetrics))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.SwaggerFile != "" {
		if _, err := os.Stat(cfg.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.SwaggerFile,
				Path:     "docs",
				Title:    cfg.Name,
			}))
		} else {
			cfg.Logger.Warn().Str("file", cfg.SwaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.Name})
	})
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	Router(app, deps)
	return app
}

// Router registra las rutas de la API bajo /api/v1.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("", AuthMiddleware(deps.JWTSecret), ActiveUser(deps.Users))
	viewer := RequireRole(entity.RoleViewer)
	staff := RequireRole(entity.RoleStaff)
	admin := RequireRole(entity.RoleAdmin)
	idem := Idempotency(deps.Idempotency, deps.IdempotencyTTL)

	protected.Get("/auth/me", viewer, authHandler.Me)

	stockHandler := NewStockHandler(deps.LedgerUC, deps.ReportUC)

	items := protected.Group("/inventory/items")
	itemHandler := NewItemHandler(deps.ItemUC)
	items.Get("/", viewer, itemHandler.List)
	items.Post("/", admin, idem, itemHandler.Create)
	items.Get("/:id", viewer, itemHandler.GetByID)
	items.Get("/:id/stock", viewer, stockHandler.ByItem)

	locations := protected.Group("/inventory/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Get("/", viewer, locationHandler.List)
	locations.Post("/", admin, idem, locationHandler.Create)
	locations.Get("/:id", viewer, locationHandler.GetByID)
	locations.Get("/:id/stock", viewer, stockHandler.ByLocation)

	stock := protected.Group("/inventory/stock")
	stock.Get("/current", viewer, stockHandler.Current)
	stock.Get("/ledger", viewer, stockHandler.Ledger)
	stock.Post("/in", staff, idem, stockHandler.StockIn)
	stock.Post("/out", staff, idem, stockHandler.StockOut)
	stock.Post("/transfer", staff, idem, stockHandler.StockTransfer)
	stock.Post("/adjustment", admin, idem, stockHandler.StockAdjustment)
	stock.Post("/reconcile", admin, stockHandler.Reconcile)

	reports := protected.Group("/inventory/reports", viewer)
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/summary", reportHandler.Summary)
	reports.Get("/stock-on-hand", reportHandler.StockOnHand)
	reports.Get("/stock-on-hand.pdf", reportHandler.StockOnHandPDF)
	reports.Get("/movements", reportHandler.Movements)

	users := protected.Group("/users")
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/roles", viewer, userHandler.Roles)
	users.Get("/users", admin, userHandler.List)
	users.Post("/users", admin, userHandler.Create)
	users.Put("/users/:id", admin, userHandler.Update)
	users.Delete("/users/:id", admin, userHandler.Disable)
}
