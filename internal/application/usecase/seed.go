package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/domain/catalog"
	"github.com/makiti/market-api/internal/domain/entity"
	"github.com/makiti/market-api/internal/domain/repository"
	"github.com/makiti/market-api/internal/pkg/clock"
)

// SeedResult conteo de la carga inicial.
type SeedResult struct {
	Inserted int
	Skipped  int
}

// SeedProducts inserta productos con ID fijo; los que ya existen se omiten, así la carga es idempotente.
// Cada producto se valida igual que en Create.
func SeedProducts(ctx context.Context, repo repository.ProductRepository, clk clock.Clock, products []entity.Product) (*SeedResult, error) {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	res := &SeedResult{}
	for i := range products {
		p := products[i].Clone()
		if p.Unit == "" {
			p.Unit = entity.DefaultUnit
		}
		if err := catalog.ValidateProduct(p); err != nil {
			return res, fmt.Errorf("producto %s: %w", p.ID, err)
		}
		existing, err := repo.GetByID(ctx, p.ID)
		if err != nil {
			return res, err
		}
		if existing != nil {
			res.Skipped++
			continue
		}
		now := clk.Now().UTC().Truncate(time.Microsecond)
		p.CreatedAt, p.UpdatedAt = now, now
		if err := repo.Create(ctx, p); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Inserted++
	}
	return res, nil
}
