// Package ingestion publica imágenes de producto en el almacenamiento de objetos.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/makiti/market-api/internal/application/ports"
	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/domain/media"
	"github.com/makiti/market-api/internal/observability"
	"github.com/makiti/market-api/pkg/logger"
)

// LegacyPrefix prefijo de claves antiguas (products/{id}.jpg) que el comando de mantenimiento elimina.
const LegacyPrefix = "products/"

// ProductImageKey clave canónica de la imagen de un producto.
func ProductImageKey(productID string) string {
	return productID + ".jpg"
}

// Pipeline normaliza y publica imágenes. Decodificación y subida corren en el pool compartido.
type Pipeline struct {
	store     ports.ObjectStorage
	pool      *ants.Pool
	log       *logger.Logger
	maxPixels int64
}

// Option ajusta el pipeline en NewPipeline.
type Option func(*Pipeline)

// WithMaxPixels límite de ancho*alto aceptado antes de decodificar (≤ 0: media.DefaultMaxPixels).
func WithMaxPixels(n int64) Option {
	return func(p *Pipeline) { p.maxPixels = n }
}

// NewPipeline construye el pipeline. pool es propiedad del llamador (main lo libera al apagar).
func NewPipeline(store ports.ObjectStorage, pool *ants.Pool, log *logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	p := &Pipeline{store: store, pool: pool, log: log.Component("ingestion"), maxPixels: media.DefaultMaxPixels}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type publishResult struct {
	url       string
	converted bool
	err       error
}

// Publish normaliza data y la sube bajo key (sobrescribe). Devuelve la URL pública.
// Errores: domain.ErrDecode si la imagen no se puede decodificar (no se sube nada), domain.ErrStorage si falla la subida.
// Si ctx se cancela, Publish vuelve enseguida; la tarea encolada no sube nada si ve ctx cancelado antes del PUT,
// pero un PUT ya iniciado puede completarse aunque el llamador reciba el error.
func (p *Pipeline) Publish(ctx context.Context, data []byte, key, contentTypeHint string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("%w: clave vacía", domain.ErrInvalidInput)
	}

	done := make(chan publishResult, 1)
	task := func() {
		start := time.Now()
		res := p.publish(ctx, data, key, contentTypeHint)
		observability.ImageProcessingSeconds.Observe(time.Since(start).Seconds())
		done <- res
	}
	if err := p.pool.Submit(task); err != nil {
		observability.ImageFailures.WithLabelValues("submit").Inc()
		return "", fmt.Errorf("%w: pool de imágenes: %v", domain.ErrUnavailable, err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		observability.ImagesPublished.WithLabelValues(strconv.FormatBool(res.converted)).Inc()
		p.log.Info().Str("key", key).Bool("converted", res.converted).Str("url", res.url).Msg("imagen publicada")
		return res.url, nil
	}
}

func (p *Pipeline) publish(ctx context.Context, data []byte, key, hint string) publishResult {
	norm, err := media.NormalizeLimit(data, hint, p.maxPixels)
	if err != nil {
		observability.ImageFailures.WithLabelValues("decode").Inc()
		return publishResult{err: err}
	}
	// el llamador pudo haberse ido mientras se decodificaba
	if err := ctx.Err(); err != nil {
		return publishResult{err: err}
	}
	if err := p.store.PutObject(ctx, key, norm.Data, norm.ContentType); err != nil {
		observability.ImageFailures.WithLabelValues("upload").Inc()
		p.log.Error().Err(err).Str("key", key).Msg("fallo al subir imagen")
		if !errors.Is(err, domain.ErrStorage) {
			err = fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		return publishResult{err: err}
	}
	return publishResult{url: p.store.PublicURL(key), converted: norm.Converted}
}

// Remove elimina el objeto; si no existe no es error.
func (p *Pipeline) Remove(ctx context.Context, key string) error {
	if err := p.store.RemoveObject(ctx, key); err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			return nil
		}
		observability.ImageFailures.WithLabelValues("remove").Inc()
		p.log.Error().Err(err).Str("key", key).Msg("fallo al eliminar imagen")
		return err
	}
	p.log.Info().Str("key", key).Msg("imagen eliminada")
	return nil
}

// Fetch lee el objeto completo. Clave inexistente: error que envuelve domain.ErrStorage y domain.ErrObjectNotFound.
func (p *Pipeline) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, err := p.store.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return data, nil
}

// Stat metadatos del objeto.
func (p *Pipeline) Stat(ctx context.Context, key string) (*ports.ObjectInfo, error) {
	return p.store.StatObject(ctx, key)
}

// List objetos bajo prefix.
func (p *Pipeline) List(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	return p.store.ListObjects(ctx, prefix)
}

// PublicURL URL pública de key.
func (p *Pipeline) PublicURL(key string) string {
	return p.store.PublicURL(key)
}
