package usecase

import (
	"context"

	"github.com/makiti/market-api/internal/domain/repository"
)

// CatalogTxRunner ejecuta fn dentro de una transacción con un repositorio atado a ella.
// Si fn devuelve error se hace rollback completo.
type CatalogTxRunner interface {
	RunCatalog(ctx context.Context, fn func(repo repository.ProductRepository) error) error
}
