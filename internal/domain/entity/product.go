package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultUnit unidad asignada a productos sin unidad (también en la migración de backfill).
const DefaultUnit = "pièce"

// Product representa un producto del catálogo del mercado.
// Los campos opcionales son punteros: nil significa ausente (NULL en BD).
// PriceMin/PriceTarget/PriceMax forman la banda de negociación; se almacenan tal cual, sin validar su orden.
type Product struct {
	ID            string
	Name          string
	Description   *string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	ImageURL      *string
	Category      string
	Unit          string
	IsAvailable   bool
	PriceMin      *decimal.Decimal
	PriceTarget   *decimal.Decimal
	PriceMax      *decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone copia profunda (los punteros no se comparten).
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	c.Description = cloneString(p.Description)
	c.ImageURL = cloneString(p.ImageURL)
	c.OriginalPrice = cloneDecimal(p.OriginalPrice)
	c.PriceMin = cloneDecimal(p.PriceMin)
	c.PriceTarget = cloneDecimal(p.PriceTarget)
	c.PriceMax = cloneDecimal(p.PriceMax)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
