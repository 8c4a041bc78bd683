// Command images tareas de mantenimiento del bucket de imágenes.
//
//	images setup-public        crea el bucket y aplica la política de lectura pública
//	images list [prefijo]      lista objetos y tamaños
//	images cleanup             elimina las claves antiguas products/...
//	images upload-local <dir>  publica <dir>/<id>.jpg para cada producto existente
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/panjf2000/ants/v2"

	"github.com/makiti/market-api/internal/application/ingestion"
	"github.com/makiti/market-api/internal/application/usecase"
	"github.com/makiti/market-api/internal/infrastructure/postgres"
	"github.com/makiti/market-api/internal/infrastructure/storage"
	"github.com/makiti/market-api/internal/pkg/clock"
	"github.com/makiti/market-api/pkg/config"
	"github.com/makiti/market-api/pkg/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "uso: images <setup-public|list [prefijo]|cleanup|upload-local <dir>>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := storage.NewClient(cfg.Storage, log)

	workers, err := ants.NewPool(cfg.Images.Workers)
	if err != nil {
		log.Fatal().Err(err).Msg("pool de imágenes")
	}
	defer workers.Release()
	pipeline := ingestion.NewPipeline(store, workers, log, ingestion.WithMaxPixels(cfg.Images.MaxPixels))

	switch os.Args[1] {
	case "setup-public":
		err = setupPublic(ctx, store)
	case "list":
		prefix := ""
		if len(os.Args) > 2 {
			prefix = os.Args[2]
		}
		err = list(ctx, pipeline, prefix)
	case "cleanup":
		var removed []string
		removed, err = ingestion.NewMaintenance(pipeline, nil, nil, 0).CleanupLegacy(ctx)
		for _, k := range removed {
			fmt.Println("eliminado:", k)
		}
		fmt.Printf("%d objetos antiguos eliminados\n", len(removed))
	case "upload-local":
		if len(os.Args) < 3 {
			usage()
		}
		err = uploadLocal(ctx, cfg, pipeline, os.Args[2])
	default:
		usage()
	}
	if err != nil {
		log.Error().Err(err).Str("cmd", os.Args[1]).Msg("comando fallido")
		stop()
		workers.Release()
		os.Exit(1)
	}
}

func setupPublic(ctx context.Context, store *storage.Client) error {
	if err := store.EnsureBucket(ctx); err != nil {
		return err
	}
	written, err := store.ApplyPublicReadPolicy(ctx)
	if err != nil {
		return err
	}
	if written {
		fmt.Printf("bucket %q configurado con lectura pública\n", store.Bucket())
	} else {
		fmt.Printf("bucket %q ya tenía lectura pública\n", store.Bucket())
	}
	return nil
}

func list(ctx context.Context, pipeline *ingestion.Pipeline, prefix string) error {
	objs, err := pipeline.List(ctx, prefix)
	if err != nil {
		return err
	}
	var total int64
	for _, o := range objs {
		fmt.Printf("%-48s %10d  %s\n", o.Key, o.Size, o.LastModified.Format("2006-01-02 15:04"))
		total += o.Size
	}
	fmt.Printf("%d objetos, %d bytes\n", len(objs), total)
	return nil
}

func uploadLocal(ctx context.Context, cfg *config.Config, pipeline *ingestion.Pipeline, dir string) error {
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return fmt.Errorf("el directorio %q no existe", dir)
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	productUC := usecase.NewProductUseCase(postgres.NewProductRepository(pool), postgres.NewTxRunner(pool), clock.NewRealClock())
	images := ingestion.NewProductImageService(pipeline, productUC, nil, nil, cfg.Images.Queue)

	sum, err := ingestion.NewMaintenance(pipeline, images, productUC, cfg.Images.Workers).UploadLocal(ctx, dir)
	if sum != nil {
		fmt.Printf("subidas: %d, omitidas: %d, sin archivo: %d, fallidas: %d\n", sum.Uploaded, sum.Skipped, sum.NotFound, sum.Failed)
	}
	return err
}
