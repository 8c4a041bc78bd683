// Command worker consume la cola de importación de imágenes (image.import).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/makiti/market-api/internal/application/ingestion"
	"github.com/makiti/market-api/internal/application/usecase"
	"github.com/makiti/market-api/internal/infrastructure/httpfetch"
	"github.com/makiti/market-api/internal/infrastructure/postgres"
	"github.com/makiti/market-api/internal/infrastructure/queue"
	"github.com/makiti/market-api/internal/infrastructure/storage"
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
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	observability.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	redisClient, err := queue.NewRedisClient(ctx, cfg.Redis.QueueConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer redisClient.Close()

	store := storage.NewClient(cfg.Storage, log)
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de objetos")
	}

	workers, err := ants.NewPool(cfg.Images.Workers)
	if err != nil {
		log.Fatal().Err(err).Msg("pool de imágenes")
	}
	defer workers.Release()

	productUC := usecase.NewProductUseCase(postgres.NewProductRepository(pool), postgres.NewTxRunner(pool), clock.NewRealClock())
	jobs := queue.NewRedisQueue(redisClient)
	downloader := httpfetch.NewDownloader(time.Duration(cfg.Images.FetchTimeoutSeconds)*time.Second, cfg.Images.MaxBytes)
	imageSvc := ingestion.NewProductImageService(ingestion.NewPipeline(store, workers, log, ingestion.WithMaxPixels(cfg.Images.MaxPixels)), productUC, jobs, downloader, cfg.Images.Queue)

	w := queue.NewWorker(jobs, queue.WorkerConfig{
		Queue:       cfg.Images.Queue,
		Concurrency: cfg.Images.Workers,
		JobTimeout:  time.Duration(cfg.Images.FetchTimeoutSeconds)*time.Second + 30*time.Second,
	}, log)
	w.Handle(ingestion.JobTypeImageImport, imageSvc.HandleImportJob)

	if err := w.Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker finalizado con error")
		os.Exit(1)
	}
}
