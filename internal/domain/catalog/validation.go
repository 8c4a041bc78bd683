// Package catalog contiene las reglas de validación del producto del catálogo.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/domain/entity"
)

// Límites de longitud (en caracteres, no bytes).
const (
	MaxNameLen        = 200
	MaxDescriptionLen = 1000
	MaxCategoryLen    = 100
	MaxUnitLen        = 20
)

// FieldError describe un campo inválido.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateProduct valida el producto completo (después de aplicar create o update parcial).
// Devuelve un error que envuelve domain.ErrInvalidInput y un *FieldError por cada campo inválido.
// La banda de negociación no se valida en orden (price_min ≤ price_target ≤ price_max), solo que sea positiva.
func ValidateProduct(p *entity.Product) error {
	if p == nil {
		return fmt.Errorf("%w: producto nulo", domain.ErrInvalidInput)
	}
	var errs []error

	name := strings.TrimSpace(p.Name)
	if name == "" {
		errs = append(errs, &FieldError{Field: "name", Message: "es requerido"})
	} else if utf8.RuneCountInString(p.Name) > MaxNameLen {
		errs = append(errs, &FieldError{Field: "name", Message: fmt.Sprintf("máximo %d caracteres", MaxNameLen)})
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > MaxDescriptionLen {
		errs = append(errs, &FieldError{Field: "description", Message: fmt.Sprintf("máximo %d caracteres", MaxDescriptionLen)})
	}
	if strings.TrimSpace(p.Category) == "" {
		errs = append(errs, &FieldError{Field: "category", Message: "es requerido"})
	} else if utf8.RuneCountInString(p.Category) > MaxCategoryLen {
		errs = append(errs, &FieldError{Field: "category", Message: fmt.Sprintf("máximo %d caracteres", MaxCategoryLen)})
	}
	if strings.TrimSpace(p.Unit) == "" {
		errs = append(errs, &FieldError{Field: "unit", Message: "es requerido"})
	} else if utf8.RuneCountInString(p.Unit) > MaxUnitLen {
		errs = append(errs, &FieldError{Field: "unit", Message: fmt.Sprintf("máximo %d caracteres", MaxUnitLen)})
	}

	if !p.Price.GreaterThan(decimal.Zero) {
		errs = append(errs, &FieldError{Field: "price", Message: "debe ser mayor que 0"})
	}
	for _, opt := range []struct {
		field string
		value *decimal.Decimal
	}{
		{"original_price", p.OriginalPrice},
		{"price_min", p.PriceMin},
		{"price_target", p.PriceTarget},
		{"price_max", p.PriceMax},
	} {
		if opt.value != nil && !opt.value.GreaterThan(decimal.Zero) {
			errs = append(errs, &FieldError{Field: opt.field, Message: "debe ser mayor que 0"})
		}
	}

	if p.ImageURL != nil && !isAbsoluteURL(*p.ImageURL) {
		errs = append(errs, &FieldError{Field: "image_url", Message: "debe ser una URL absoluta"})
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{domain.ErrInvalidInput}, errs...)...)
	}
	return nil
}

// ValidatePage valida la paginación del motor (page ≥ 1, page_size ≥ 1) y que (page-1)*page_size no desborde.
func ValidatePage(page, pageSize int) error {
	var errs []error
	if page < 1 {
		errs = append(errs, &FieldError{Field: "page", Message: "debe ser ≥ 1"})
	} else if pageSize >= 1 && page > math.MaxInt/pageSize {
		errs = append(errs, &FieldError{Field: "page", Message: fmt.Sprintf("máximo %d", math.MaxInt/pageSize)})
	}
	if pageSize < 1 {
		errs = append(errs, &FieldError{Field: "page_size", Message: "debe ser ≥ 1"})
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{domain.ErrInvalidInput}, errs...)...)
	}
	return nil
}

// FieldErrors extrae los *FieldError contenidos en err (recorre errors.Join y %w).
func FieldErrors(err error) []*FieldError {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FieldError); ok {
		return []*FieldError{fe}
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		var out []*FieldError
		for _, e := range u.Unwrap() {
			out = append(out, FieldErrors(e)...)
		}
		return out
	case interface{ Unwrap() error }:
		return FieldErrors(u.Unwrap())
	}
	return nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
