package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/makiti/market-api/internal/domain/repository"
	"github.com/makiti/market-api/internal/pkg/query"
)

func TestProductListQuery_SinFiltros(t *testing.T) {
	sql, args := productListQuery(repository.ProductFilter{}).Count().Build()
	assert.Equal(t, "SELECT COUNT(*) FROM products", sql)
	assert.Empty(t, args)
}

func TestProductListQuery_FiltrosCombinados(t *testing.T) {
	available := true
	sql, args := productListQuery(repository.ProductFilter{
		Category:    "Fruits",
		Search:      "man%",
		IsAvailable: &available,
	}).Count().Build()

	assert.Equal(t,
		"SELECT COUNT(*) FROM products WHERE category = $1 AND (name ILIKE $2 OR description ILIKE $2) AND is_available = $3",
		sql)
	assert.Equal(t, []any{"Fruits", `%man\%%`, true}, args)
}

func TestProductListQuery_Pagina(t *testing.T) {
	sql, args := productListQuery(repository.ProductFilter{Category: "Légumes"}).
		Select("id").
		OrderBy("created_at", query.Desc).
		OrderBy("id", query.Desc).
		Limit(20).
		Offset(40).
		Build()
	assert.Equal(t, "SELECT id FROM products WHERE category = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3", sql)
	assert.Equal(t, []any{"Légumes", int64(20), int64(40)}, args)
}
