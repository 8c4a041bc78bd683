// Package httpfetch descarga imágenes remotas para el trabajo de importación.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/makiti/market-api/internal/application/ports"
	"github.com/makiti/market-api/internal/domain"
)

var _ ports.ImageDownloader = (*Downloader)(nil)

const userAgent = "makiti-market-api/image-import"

// Downloader cliente HTTP con timeout y límite de tamaño.
type Downloader struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewDownloader maxBytes <= 0 usa 10 MiB.
func NewDownloader(timeout time.Duration, maxBytes int64) *Downloader {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
}

// Download GET url. Respuestas no 2xx o más grandes que maxBytes son error.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: url inválida: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: descargar %s: %v", domain.ErrUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", fmt.Errorf("descargar %s: %w", url, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: descargar %s: status %d", domain.ErrUnavailable, url, resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return nil, "", fmt.Errorf("%w: imagen de %d bytes supera el máximo %d", domain.ErrInvalidInput, resp.ContentLength, d.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: leer %s: %v", domain.ErrUnavailable, url, err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, "", fmt.Errorf("%w: imagen supera el máximo %d bytes", domain.ErrInvalidInput, d.maxBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
