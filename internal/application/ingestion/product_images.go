package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/makiti/market-api/internal/application/dto"
	"github.com/makiti/market-api/internal/application/ports"
	"github.com/makiti/market-api/internal/domain"
)

// JobTypeImageImport tipo del trabajo de importación remota.
const JobTypeImageImport = "image.import"

// Catalog operaciones del motor de catálogo que necesita el servicio de imágenes.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*dto.ProductResponse, error)
	Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error)
}

// ProductImageService orquesta pipeline + catálogo: publica la imagen de un producto y asigna image_url.
// El catálogo no conoce al pipeline; el enlace se hace aquí.
type ProductImageService struct {
	pipeline   *Pipeline
	catalog    Catalog
	queue      ports.JobQueue
	downloader ports.ImageDownloader
	queueName  string
}

// NewProductImageService queue y downloader pueden ser nil si el proceso no importa imágenes remotas.
func NewProductImageService(p *Pipeline, catalog Catalog, queue ports.JobQueue, downloader ports.ImageDownloader, queueName string) *ProductImageService {
	return &ProductImageService{pipeline: p, catalog: catalog, queue: queue, downloader: downloader, queueName: queueName}
}

// AttachImage publica data como {id}.jpg y guarda la URL en el producto.
func (s *ProductImageService) AttachImage(ctx context.Context, productID string, data []byte, contentType string) (*dto.ProductResponse, error) {
	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	publicURL, err := s.pipeline.Publish(ctx, data, ProductImageKey(productID), contentType)
	if err != nil {
		return nil, err
	}
	return s.catalog.Update(ctx, productID, dto.UpdateProductRequest{ImageURL: dto.Some(publicURL)})
}

// DetachImage elimina el objeto y deja image_url en null.
func (s *ProductImageService) DetachImage(ctx context.Context, productID string) (*dto.ProductResponse, error) {
	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.pipeline.Remove(ctx, ProductImageKey(productID)); err != nil {
		return nil, err
	}
	return s.catalog.Update(ctx, productID, dto.UpdateProductRequest{ImageURL: dto.Null[string]()})
}

// ImportFromURL descarga sourceURL y la adjunta al producto.
func (s *ProductImageService) ImportFromURL(ctx context.Context, productID, sourceURL string) (*dto.ProductResponse, error) {
	if s.downloader == nil {
		return nil, fmt.Errorf("%w: descargador no configurado", domain.ErrUnavailable)
	}
	if err := validateSourceURL(sourceURL); err != nil {
		return nil, err
	}
	data, contentType, err := s.downloader.Download(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	return s.AttachImage(ctx, productID, data, contentType)
}

// RequestImport encola un trabajo image.import. El producto debe existir.
func (s *ProductImageService) RequestImport(ctx context.Context, in dto.ImageImportRequest) (*dto.ImageImportResponse, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("%w: cola no configurada", domain.ErrUnavailable)
	}
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.SourceURL = strings.TrimSpace(in.SourceURL)
	if in.ProductID == "" {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if err := validateSourceURL(in.SourceURL); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}
	jobID, err := s.queue.Enqueue(ctx, s.queueName, JobTypeImageImport, dto.ImageImportPayload{
		ProductID: in.ProductID,
		SourceURL: in.SourceURL,
	})
	if err != nil {
		return nil, err
	}
	return &dto.ImageImportResponse{JobID: jobID, Queue: s.queueName, ProductID: in.ProductID}, nil
}

// HandleImportJob procesa la carga útil de un trabajo image.import.
func (s *ProductImageService) HandleImportJob(ctx context.Context, payload json.RawMessage) error {
	var p dto.ImageImportPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: payload image.import: %v", domain.ErrInvalidInput, err)
	}
	_, err := s.ImportFromURL(ctx, p.ProductID, p.SourceURL)
	return err
}

func validateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: source_url debe ser una URL http(s) absoluta", domain.ErrInvalidInput)
	}
	return nil
}
