package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProductMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_product_mutations_total",
			Help: "Total de mutaciones de productos por operación",
		},
		[]string{"op"},
	)

	ImagesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_images_published_total",
			Help: "Imágenes publicadas en el almacenamiento de objetos",
		},
		[]string{"converted"},
	)

	ImageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_image_failures_total",
			Help: "Fallos del pipeline de imágenes por etapa",
		},
		[]string{"stage"},
	)

	ImageProcessingSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_image_processing_seconds",
			Help:    "Duración de normalización + subida",
			Buckets: prometheus.DefBuckets,
		},
	)

	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_jobs_processed_total",
			Help: "Trabajos en segundo plano procesados por tipo y resultado",
		},
		[]string{"type", "result"},
	)
)

var registerOnce sync.Once

// Register registra los colectores en el registro por defecto (una sola vez por proceso).
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ProductMutations, ImagesPublished, ImageFailures, ImageProcessingSeconds, JobsProcessed)
	})
}

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
