package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/makiti/market-api/internal/application/dto"
)

// CatalogLister listado paginado del catálogo.
type CatalogLister interface {
	List(ctx context.Context, filter dto.ProductFilter, page dto.PageRequest) (*dto.ProductListResponse, error)
}

// UploadSummary resultado de UploadLocal.
type UploadSummary struct {
	Uploaded int64
	Skipped  int64
	NotFound int64
	Failed   int64
}

// Maintenance tareas de mantenimiento del bucket (comando images).
type Maintenance struct {
	pipeline *Pipeline
	images   *ProductImageService
	catalog  CatalogLister
	parallel int
}

// NewMaintenance parallel limita las subidas simultáneas de UploadLocal.
func NewMaintenance(p *Pipeline, images *ProductImageService, catalog CatalogLister, parallel int) *Maintenance {
	if parallel <= 0 {
		parallel = 4
	}
	return &Maintenance{pipeline: p, images: images, catalog: catalog, parallel: parallel}
}

// CleanupLegacy elimina los objetos bajo LegacyPrefix. Devuelve las claves borradas.
func (m *Maintenance) CleanupLegacy(ctx context.Context) ([]string, error) {
	objs, err := m.pipeline.List(ctx, LegacyPrefix)
	if err != nil {
		return nil, err
	}
	removed := make([]string, 0, len(objs))
	for _, o := range objs {
		if err := m.pipeline.Remove(ctx, o.Key); err != nil {
			return removed, err
		}
		removed = append(removed, o.Key)
	}
	return removed, nil
}

// UploadLocal publica dir/{id}.jpg para cada producto existente. Se omite el producto si ya
// apunta a su URL canónica y el objeto existe.
func (m *Maintenance) UploadLocal(ctx context.Context, dir string) (*UploadSummary, error) {
	products, err := m.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	var sum UploadSummary
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallel)
	for _, p := range products {
		g.Go(func() error {
			key := ProductImageKey(p.ID)
			data, err := os.ReadFile(filepath.Join(dir, key))
			if err != nil {
				atomic.AddInt64(&sum.NotFound, 1)
				return nil
			}
			if m.alreadyPublished(gctx, p, key) {
				atomic.AddInt64(&sum.Skipped, 1)
				return nil
			}
			if _, err := m.images.AttachImage(gctx, p.ID, data, ""); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				m.pipeline.log.Error().Err(err).Str("product_id", p.ID).Msg("no se pudo subir la imagen local")
				atomic.AddInt64(&sum.Failed, 1)
				return nil
			}
			atomic.AddInt64(&sum.Uploaded, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &sum, err
	}
	return &sum, nil
}

func (m *Maintenance) alreadyPublished(ctx context.Context, p dto.ProductResponse, key string) bool {
	if p.ImageURL == nil || strings.TrimSpace(*p.ImageURL) != m.pipeline.PublicURL(key) {
		return false
	}
	_, err := m.pipeline.Stat(ctx, key)
	return err == nil
}

func (m *Maintenance) allProducts(ctx context.Context) ([]dto.ProductResponse, error) {
	var out []dto.ProductResponse
	page := dto.PageRequest{Page: 1, PageSize: dto.MaxPageSize}
	for {
		res, err := m.catalog.List(ctx, dto.ProductFilter{}, page)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if page.Page >= res.Pages {
			return out, nil
		}
		page.Page++
	}
}
