// seed_products carga el catálogo de ejemplo (productos del mercado de África occidental).
// Es idempotente: los IDs que ya existen se omiten.
//
// Uso: go run ./cmd/seed_products
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/makiti/market-api/internal/application/usecase"
	"github.com/makiti/market-api/internal/domain/entity"
	"github.com/makiti/market-api/internal/infrastructure/postgres"
	"github.com/makiti/market-api/internal/pkg/clock"
	"github.com/makiti/market-api/pkg/config"
	"github.com/makiti/market-api/pkg/logger"
)

type seed struct {
	id, name, description, category, unit string
	price, original, min, target, max    int64
	imageURL                              string
}

const (
	imgLegumes  = "https://images.unsplash.com/photo-1546094097-3c4b0b0e0b0b?w=400"
	imgTubercul = "https://images.unsplash.com/photo-1518977822534-7049a61ee0c2?w=400"
	imgFruits   = "https://images.unsplash.com/photo-1605027990121-4a0e4c8c5e5a?w=400"
	imgEpicerie = "https://images.unsplash.com/photo-1586201375761-83865001e31c?w=400"
	imgFrais    = "https://images.unsplash.com/photo-1604503468506-a8da13d82791?w=400"
)

// Precios en FCFA.
var seeds = []seed{
	{"prod-001", "Tomates fraîches", "Tomates rouges et juteuses du marché local", "Légumes", "kg", 1500, 0, 1200, 1500, 1800, imgLegumes},
	{"prod-002", "Oignons", "Oignons locaux de qualité", "Légumes", "kg", 1200, 0, 1000, 1200, 1500, imgTubercul},
	{"prod-003", "Pommes de terre", "Pommes de terre fraîches", "Légumes", "kg", 1800, 2000, 1500, 1800, 2200, imgTubercul},
	{"prod-004", "Mangues", "Mangues sucrées de saison", "Fruits", "kg", 2500, 0, 2000, 2500, 3000, imgFruits},
	{"prod-005", "Bananes plantain", "Bananes plantain mûres", "Fruits", "kg", 1000, 0, 800, 1000, 1200, imgFruits},
	{"prod-006", "Riz local", "Riz de qualité supérieure", "Épicerie", "kg", 3500, 0, 3000, 3500, 4000, imgEpicerie},
	{"prod-007", "Huile de palme", "Huile de palme naturelle", "Épicerie", "L", 2800, 0, 2500, 2800, 3200, imgEpicerie},
	{"prod-008", "Poulet frais", "Poulet fermier", "Viande", "kg", 4500, 0, 4000, 4500, 5000, imgFrais},
	{"prod-009", "Poisson frais", "Poisson du jour", "Poisson", "kg", 5000, 0, 4500, 5000, 6000, imgFrais},
	{"prod-010", "Gombo", "Gombo frais", "Légumes", "kg", 2000, 0, 1500, 2000, 2500, imgLegumes},
	{"prod-011", "Aubergines", "Aubergines locales", "Légumes", "kg", 1800, 0, 1500, 1800, 2200, imgLegumes},
	{"prod-012", "Ananas", "Ananas sucrés et juteux", "Fruits", "pièce", 2000, 0, 1500, 2000, 2500, imgFruits},
	{"prod-013", "Piments", "Piments rouges frais", "Légumes", "kg", 1500, 0, 1200, 1500, 1800, imgLegumes},
	{"prod-014", "Ail", "Ail frais", "Légumes", "kg", 3000, 0, 2500, 3000, 3500, imgLegumes},
	{"prod-015", "Gingembre", "Gingembre frais", "Légumes", "kg", 4000, 0, 3500, 4000, 4500, imgLegumes},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	products := make([]entity.Product, 0, len(seeds))
	perCategory := map[string]int{}
	for _, s := range seeds {
		products = append(products, s.product())
		perCategory[s.category]++
	}

	res, err := usecase.SeedProducts(ctx, postgres.NewProductRepository(pool), clock.NewRealClock(), products)
	if err != nil {
		log.Fatal().Err(err).Msg("carga de productos")
	}
	fmt.Printf("Productos insertados: %d, ya existentes: %d\n", res.Inserted, res.Skipped)

	categories := make([]string, 0, len(perCategory))
	for c := range perCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Printf("  - %s: %d\n", c, perCategory[c])
	}
}

func (s seed) product() entity.Product {
	p := entity.Product{
		ID:          s.id,
		Name:        s.name,
		Description: &s.description,
		Price:       decimal.NewFromInt(s.price),
		Category:    s.category,
		Unit:        s.unit,
		IsAvailable: true,
		PriceMin:    price(s.min),
		PriceTarget: price(s.target),
		PriceMax:    price(s.max),
		ImageURL:    &s.imageURL,
	}
	if s.original > 0 {
		p.OriginalPrice = price(s.original)
	}
	return p
}

func price(v int64) *decimal.Decimal {
	if v <= 0 {
		return nil
	}
	d := decimal.NewFromInt(v)
	return &d
}
