package ports

import "context"

// JobQueue puerto para encolar trabajos en segundo plano.
type JobQueue interface {
	Enqueue(ctx context.Context, queue, jobType string, payload any) (string, error)
}

// ImageDownloader descarga una imagen remota. Devuelve los bytes y el Content-Type informado por el servidor.
type ImageDownloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}
