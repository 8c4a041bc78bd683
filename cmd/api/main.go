package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/panjf2000/ants/v2"

	"github.com/makiti/market-api/internal/application/ingestion"
	"github.com/makiti/market-api/internal/application/usecase"
	"github.com/makiti/market-api/internal/infrastructure/postgres"
	"github.com/makiti/market-api/internal/infrastructure/queue"
	"github.com/makiti/market-api/internal/infrastructure/storage"
	httpRouter "github.com/makiti/market-api/internal/interfaces/http"
	"github.com/makiti/market-api/internal/observability"
	"github.com/makiti/market-api/internal/pkg/clock"
	"github.com/makiti/market-api/pkg/config"
	"github.com/makiti/market-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("version", cfg.App.Version).
		Msg("iniciando aplicación")

	observability.Register()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	redisClient, err := queue.NewRedisClient(ctx, cfg.Redis.QueueConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer redisClient.Close()

	store := storage.NewClient(cfg.Storage, log)
	if err := store.Prepare(ctx); err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de objetos")
	}

	workers, err := ants.NewPool(cfg.Images.Workers)
	if err != nil {
		log.Fatal().Err(err).Msg("pool de imágenes")
	}
	defer workers.Release()

	productRepo := postgres.NewProductRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	productUC := usecase.NewProductUseCase(productRepo, txRunner, clock.NewRealClock())

	pipeline := ingestion.NewPipeline(store, workers, log, ingestion.WithMaxPixels(cfg.Images.MaxPixels))
	imageSvc := ingestion.NewProductImageService(pipeline, productUC, queue.NewRedisQueue(redisClient), nil, cfg.Images.Queue)

	app := httpRouter.NewApp(httpRouter.AppInfo{
		Name:        cfg.App.Name,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.App.CORSOrigins,
		BodyLimit:   int(cfg.Images.MaxBytes) + 1<<20,
	}, httpRouter.RouterDeps{
		ProductUC:     productUC,
		Images:        imageSvc,
		Pipeline:      pipeline,
		MaxImageBytes: cfg.Images.MaxBytes,
		Log:           log,
	})

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Makiti Market API",
	}))

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
