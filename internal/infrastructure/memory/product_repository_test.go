package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/domain/entity"
	"github.com/makiti/market-api/internal/domain/repository"
	"github.com/makiti/market-api/internal/infrastructure/memory"
)

func TestProductRepo_ListOffsetNegativo(t *testing.T) {
	repo := memory.NewProductRepository()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &entity.Product{
		ID: "p-1", Name: "Ail", Price: decimal.NewFromInt(3000), Category: "Légumes", Unit: "kg",
		IsAvailable: true, CreatedAt: now, UpdatedAt: now,
	}))

	_, _, err := repo.List(ctx, repository.ProductFilter{}, 100, -9223372036854775716)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	items, total, err := repo.List(ctx, repository.ProductFilter{}, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
}
