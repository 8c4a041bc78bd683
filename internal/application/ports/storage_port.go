package ports

import (
	"context"
	"time"
)

// ObjectInfo metadatos de un objeto almacenado.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStorage puerto de salida hacia el almacenamiento de objetos S3 compatible.
// Los adaptadores devuelven errores que envuelven domain.ErrObjectNotFound cuando la clave no existe
// y domain.ErrStorage para cualquier otro fallo.
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	// RemoveObject no falla si el objeto no existe.
	RemoveObject(ctx context.Context, key string) error
	StatObject(ctx context.Context, key string) (*ObjectInfo, error)
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// PublicURL URL determinística scheme://endpoint/bucket/key.
	PublicURL(key string) string
}
