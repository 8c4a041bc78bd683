package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/makiti/market-api/internal/application/dto"
	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/domain/catalog"
	"github.com/makiti/market-api/internal/domain/entity"
	"github.com/makiti/market-api/internal/domain/repository"
	"github.com/makiti/market-api/internal/observability"
	"github.com/makiti/market-api/internal/pkg/clock"
)

// ProductUseCase motor de catálogo: CRUD y consultas sobre Product.
// Es el único escritor de la tabla products.
type ProductUseCase struct {
	repo  repository.ProductRepository
	tx    CatalogTxRunner
	clock clock.Clock
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, tx CatalogTxRunner, clk clock.Clock) *ProductUseCase {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &ProductUseCase{repo: repo, tx: tx, clock: clk}
}

// Create crea un nuevo producto con ID generado. created_at y updated_at quedan iguales.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	now := uc.now()
	product := &entity.Product{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		ImageURL:      in.ImageURL,
		Category:      strings.TrimSpace(in.Category),
		Unit:          strings.TrimSpace(in.Unit),
		IsAvailable:   true,
		PriceMin:      in.PriceMin,
		PriceTarget:   in.PriceTarget,
		PriceMax:      in.PriceMax,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if product.Unit == "" {
		product.Unit = entity.DefaultUnit
	}
	if in.IsAvailable != nil {
		product.IsAvailable = *in.IsAvailable
	}
	if err := catalog.ValidateProduct(product); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	observability.ProductMutations.WithLabelValues("create").Inc()
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID; domain.ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return toProductResponse(product), nil
}

// Update aplica una actualización parcial dentro de una transacción (lectura con bloqueo + escritura).
// Solo se tocan los campos presentes; updated_at siempre avanza. Sin control optimista: gana la última escritura.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var updated *entity.Product
	err := uc.tx.RunCatalog(ctx, func(repo repository.ProductRepository) error {
		product, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
		}
		if err := applyUpdate(product, in); err != nil {
			return err
		}
		if err := catalog.ValidateProduct(product); err != nil {
			return err
		}
		product.UpdatedAt = uc.nextUpdatedAt(product.UpdatedAt)
		if err := repo.Update(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.ProductMutations.WithLabelValues("update").Inc()
	return toProductResponse(updated), nil
}

// Delete elimina un producto; un segundo Delete sobre el mismo ID devuelve domain.ErrNotFound.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	observability.ProductMutations.WithLabelValues("delete").Inc()
	return nil
}

// List lista productos filtrados (AND) y paginados, más recientes primero.
// Total cuenta las coincidencias antes de paginar. Search vacío no filtra.
func (uc *ProductUseCase) List(ctx context.Context, filter dto.ProductFilter, page dto.PageRequest) (*dto.ProductListResponse, error) {
	if err := catalog.ValidatePage(page.Page, page.PageSize); err != nil {
		return nil, err
	}
	list, total, err := uc.repo.List(ctx, repository.ProductFilter{
		Category:    filter.Category,
		Search:      strings.TrimSpace(filter.Search),
		IsAvailable: filter.IsAvailable,
	}, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Pages:    dto.TotalPages(total, page.PageSize),
	}, nil
}

// ListCategories devuelve cada categoría distinta una sola vez.
func (uc *ProductUseCase) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := uc.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// now hora truncada a microsegundos (precisión de timestamptz).
func (uc *ProductUseCase) now() time.Time {
	return uc.clock.Now().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt garantiza que updated_at crezca estrictamente aunque el reloj no haya avanzado.
func (uc *ProductUseCase) nextUpdatedAt(prev time.Time) time.Time {
	now := uc.now()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

func applyUpdate(p *entity.Product, in dto.UpdateProductRequest) error {
	var errs []string
	required := func(field string, null bool) bool {
		if null {
			errs = append(errs, field)
			return false
		}
		return true
	}

	if in.Name.Set && required("name", in.Name.Null) {
		p.Name = strings.TrimSpace(in.Name.Value)
	}
	if in.Price.Set && required("price", in.Price.Null) {
		p.Price = in.Price.Value
	}
	if in.Category.Set && required("category", in.Category.Null) {
		p.Category = strings.TrimSpace(in.Category.Value)
	}
	if in.Unit.Set && required("unit", in.Unit.Null) {
		p.Unit = strings.TrimSpace(in.Unit.Value)
	}
	if in.IsAvailable.Set && required("is_available", in.IsAvailable.Null) {
		p.IsAvailable = in.IsAvailable.Value
	}
	if in.Description.Set {
		p.Description = in.Description.Ptr()
	}
	if in.ImageURL.Set {
		p.ImageURL = in.ImageURL.Ptr()
	}
	if in.OriginalPrice.Set {
		p.OriginalPrice = in.OriginalPrice.Ptr()
	}
	if in.PriceMin.Set {
		p.PriceMin = in.PriceMin.Ptr()
	}
	if in.PriceTarget.Set {
		p.PriceTarget = in.PriceTarget.Ptr()
	}
	if in.PriceMax.Set {
		p.PriceMax = in.PriceMax.Ptr()
	}

	if len(errs) > 0 {
		fieldErrs := make([]error, 0, len(errs)+1)
		fieldErrs = append(fieldErrs, domain.ErrInvalidInput)
		for _, f := range errs {
			fieldErrs = append(fieldErrs, &catalog.FieldError{Field: f, Message: "no puede ser null"})
		}
		return errors.Join(fieldErrs...)
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	c := p.Clone()
	return &dto.ProductResponse{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		Price:         c.Price,
		OriginalPrice: c.OriginalPrice,
		ImageURL:      c.ImageURL,
		Category:      c.Category,
		Unit:          c.Unit,
		IsAvailable:   c.IsAvailable,
		PriceMin:      c.PriceMin,
		PriceTarget:   c.PriceTarget,
		PriceMax:      c.PriceMax,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
