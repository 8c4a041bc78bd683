// Package media normaliza imágenes de producto antes de publicarlas.
// JPEG, PNG y WEBP se publican sin tocar; cualquier otro formato decodificable
// (GIF, BMP, TIFF) se aplana a RGB y se recodifica como JPEG.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/makiti/market-api/internal/domain"
)

// JPEGQuality calidad de recodificación.
const JPEGQuality = 85

// DefaultMaxPixels límite de píxeles (ancho*alto) antes de decodificar; mismo valor que PIL.
const DefaultMaxPixels int64 = 89_478_485

const contentTypeJPEG = "image/jpeg"

// passthrough formatos aceptados tal cual (nombre registrado en image.RegisterFormat → MIME).
var passthrough = map[string]string{
	"jpeg": contentTypeJPEG,
	"png":  "image/png",
	"webp": "image/webp",
}

// Result imagen lista para subir.
type Result struct {
	Data        []byte
	ContentType string
	Format      string // formato original detectado
	Converted   bool
}

// Normalize detecta el formato real de data (no se confía en contentTypeHint).
// Formatos aceptados: se devuelven los mismos bytes. Otros: se aplanan a RGB y se recodifican en JPEG.
// Si la imagen no se puede decodificar devuelve un error que envuelve domain.ErrDecode.
func Normalize(data []byte, contentTypeHint string) (*Result, error) {
	return NormalizeLimit(data, contentTypeHint, DefaultMaxPixels)
}

// NormalizeLimit como Normalize, rechazando con domain.ErrDecode las imágenes de más de maxPixels.
// maxPixels ≤ 0 usa DefaultMaxPixels.
func NormalizeLimit(data []byte, contentTypeHint string, maxPixels int64) (*Result, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: contenido vacío", domain.ErrDecode)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: dimensiones inválidas %dx%d", domain.ErrDecode, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d supera el máximo de %d píxeles", domain.ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}

	if ct, ok := passthrough[format]; ok {
		return &Result{Data: data, ContentType: ct, Format: format}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s (hint %q): %v", domain.ErrDecode, format, contentTypeHint, err)
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, FlattenRGB(img), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("codificar jpeg: %w", err)
	}
	return &Result{Data: out.Bytes(), ContentType: contentTypeJPEG, Format: format, Converted: true}, nil
}

// FlattenRGB convierte cualquier modo (paleta, gris, con alfa) a RGB opaco.
// El canal alfa se descarta sin componer sobre un fondo: se conservan los valores de color sin premultiplicar.
func FlattenRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}
