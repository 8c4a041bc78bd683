package repository

import (
	"context"

	"github.com/makiti/market-api/internal/domain/entity"
)

// ProductFilter filtros del listado. nil / vacío = sin restricción en ese campo.
type ProductFilter struct {
	Category    string
	Search      string
	IsAvailable *bool
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID devuelve (nil, nil) si no existe; Update/Delete devuelven domain.ErrNotFound.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetByIDForUpdate como GetByID pero bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, int, error)
	ListCategories(ctx context.Context) ([]string, error)
}
