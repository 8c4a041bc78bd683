package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// Pipeline de imágenes / almacenamiento de objetos.
	ErrDecode         = errors.New("imagen no decodificable")
	ErrStorage        = errors.New("error de almacenamiento de objetos")
	ErrObjectNotFound = errors.New("objeto no encontrado")

	// ErrUnavailable dependencia (BD, Redis, object store) inaccesible.
	ErrUnavailable = errors.New("dependencia no disponible")
)
