// Package memory adaptadores en memoria de los puertos de persistencia, almacenamiento y cola.
// Solo los usan los tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/makiti/market-api/internal/application/usecase"
	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/domain/entity"
	"github.com/makiti/market-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ usecase.CatalogTxRunner      = (*ProductRepo)(nil)
)

// ProductRepo repositorio de productos en memoria. Guarda copias: lo devuelto no comparte punteros.
type ProductRepo struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	products map[string]*entity.Product
}

// NewProductRepository crea un repositorio vacío.
func NewProductRepository() *ProductRepo {
	return &ProductRepo{products: make(map[string]*entity.Product)}
}

// RunCatalog serializa las transacciones; si fn falla se restaura el estado previo.
func (r *ProductRepo) RunCatalog(ctx context.Context, fn func(repo repository.ProductRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	snapshot := make(map[string]*entity.Product, len(r.products))
	for k, v := range r.products {
		snapshot[k] = v.Clone()
	}
	r.mu.RUnlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.products = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; ok {
		return domain.ErrDuplicate
	}
	r.products[product.ID] = product.Clone()
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (r *ProductRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("producto %s: %w", product.ID, domain.ErrNotFound)
	}
	r.products[product.ID] = product.Clone()
	return nil
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// List replica la semántica de la consulta SQL: filtros AND, búsqueda sin mayúsculas en name o description
// (como ILIKE), orden created_at DESC, id DESC.
func (r *ProductRepo) List(_ context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int, error) {
	if offset < 0 || limit < 0 {
		return nil, 0, fmt.Errorf("%w: limit=%d offset=%d", domain.ErrInvalidInput, limit, offset)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	fold := cases.Fold()
	term := fold.String(filter.Search)

	var matched []*entity.Product
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.IsAvailable != nil && p.IsAvailable != *filter.IsAvailable {
			continue
		}
		if term != "" {
			inName := strings.Contains(fold.String(p.Name), term)
			inDesc := p.Description != nil && strings.Contains(fold.String(*p.Description), term)
			if !inName && !inDesc {
				continue
			}
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if offset >= total {
		return []*entity.Product{}, total, nil
	}
	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}
	out := make([]*entity.Product, 0, end-offset)
	for _, p := range matched[offset:end] {
		out = append(out, p.Clone())
	}
	return out, total, nil
}

func (r *ProductRepo) ListCategories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range r.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}
