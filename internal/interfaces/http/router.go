package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/makiti/market-api/internal/application/ingestion"
	"github.com/makiti/market-api/internal/application/usecase"
	"github.com/makiti/market-api/internal/observability"
	"github.com/makiti/market-api/pkg/logger"
)

// AppInfo datos expuestos en / y /health.
type AppInfo struct {
	Name        string
	Version     string
	CORSOrigins []string
	BodyLimit   int
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC     *usecase.ProductUseCase
	Images        *ingestion.ProductImageService
	Pipeline      *ingestion.Pipeline
	MaxImageBytes int64
	Log           *logger.Logger
}

// NewApp crea la aplicación Fiber con middlewares comunes, endpoints de servicio y rutas de la API.
func NewApp(info AppInfo, deps RouterDeps) *fiber.App {
	cfg := fiber.Config{
		AppName:      info.Name,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	}
	if info.BodyLimit > 0 {
		cfg.BodyLimit = info.BodyLimit
	}
	app := fiber.New(cfg)
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(info.CORSOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"name": info.Name, "version": info.Version, "docs": "/docs"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "service": info.Name})
	})
	app.Get("/api/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "service": info.Name, "version": info.Version})
	})
	app.Get("/metrics", adaptor.HTTPHandler(observability.Handler()))

	Router(app, deps)
	return app
}

// Router registra las rutas de la API.
func Router(app fiber.Router, deps RouterDeps) {
	api := app.Group("/api/v1")

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	// antes de /:id para que "categories" no se tome como ID
	products.Get("/categories/list", productHandler.Categories)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	if deps.Images == nil || deps.Pipeline == nil {
		return
	}

	// Mantenimiento de imágenes (sin autenticación, igual que el resto de la API)
	admin := api.Group("/admin")
	imageHandler := NewImageHandler(deps.Images, deps.Pipeline, deps.MaxImageBytes, deps.Log)
	admin.Post("/products/:id/image", imageHandler.Upload)
	admin.Delete("/products/:id/image", imageHandler.Remove)
	admin.Post("/images/import", imageHandler.Import)
	admin.Get("/images/*", imageHandler.Fetch)
}
