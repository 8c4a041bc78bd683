package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// Unit vacío se reemplaza por la unidad por defecto; IsAvailable omitido = true.
type CreateProductRequest struct {
	Name          string           `json:"name" validate:"required,min=1,max=200"`
	Description   *string          `json:"description" validate:"omitempty,max=1000"`
	Price         decimal.Decimal  `json:"price" validate:"required,gt=0"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	ImageURL      *string          `json:"image_url"`
	Category      string           `json:"category" validate:"required,min=1,max=100"`
	Unit          string           `json:"unit" validate:"max=20"`
	IsAvailable   *bool            `json:"is_available"`
	PriceMin      *decimal.Decimal `json:"price_min"`
	PriceTarget   *decimal.Decimal `json:"price_target"`
	PriceMax      *decimal.Decimal `json:"price_max"`
}

// UpdateProductRequest actualización parcial: solo se modifican los campos presentes en el JSON.
// null en un campo opcional lo borra; null en un campo requerido es un error de validación.
type UpdateProductRequest struct {
	Name          Optional[string]          `json:"name"`
	Description   Optional[string]          `json:"description"`
	Price         Optional[decimal.Decimal] `json:"price"`
	OriginalPrice Optional[decimal.Decimal] `json:"original_price"`
	ImageURL      Optional[string]          `json:"image_url"`
	Category      Optional[string]          `json:"category"`
	Unit          Optional[string]          `json:"unit"`
	IsAvailable   Optional[bool]            `json:"is_available"`
	PriceMin      Optional[decimal.Decimal] `json:"price_min"`
	PriceTarget   Optional[decimal.Decimal] `json:"price_target"`
	PriceMax      Optional[decimal.Decimal] `json:"price_max"`
}

// ProductFilter filtros del listado (query string).
type ProductFilter struct {
	Category    string `query:"category"`
	Search      string `query:"search"`
	IsAvailable *bool  `query:"is_available"`
}

// ProductResponse salida de un producto. Los opcionales ausentes se serializan como null.
type ProductResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   *string          `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	ImageURL      *string          `json:"image_url"`
	Category      string           `json:"category"`
	Unit          string           `json:"unit"`
	IsAvailable   bool             `json:"is_available"`
	PriceMin      *decimal.Decimal `json:"price_min"`
	PriceTarget   *decimal.Decimal `json:"price_target"`
	PriceMax      *decimal.Decimal `json:"price_max"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items    []ProductResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Pages    int               `json:"pages"`
}
