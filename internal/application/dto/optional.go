package dto

import (
	"bytes"
	"encoding/json"
)

// Optional distingue en un JSON de actualización parcial entre campo omitido (Set=false),
// campo enviado como null (Set=true, Null=true) y campo con valor.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some construye un Optional con valor.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null construye un Optional enviado como null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON solo se invoca cuando la clave está presente en el cuerpo.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON serializa null si no hay valor.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr devuelve nil si el campo es null, o un puntero a una copia del valor.
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}
