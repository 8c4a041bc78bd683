package media_test

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/domain/media"
)

func sampleRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 120, A: 0xff})
		}
	}
	return img
}

func encodeWith(t *testing.T, enc func(*bytes.Buffer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf))
	return buf.Bytes()
}

func TestNormalize_JPEGPasaSinCambios(t *testing.T) {
	data := encodeWith(t, func(b *bytes.Buffer) error { return jpeg.Encode(b, sampleRGBA(), nil) })

	res, err := media.Normalize(data, "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, data, res.Data, "los bytes JPEG no deben modificarse")
	assert.Equal(t, "image/jpeg", res.ContentType)
	assert.False(t, res.Converted)
}

func TestNormalize_PNGConAlfaPasaSinCambios(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	data := encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, img) })

	res, err := media.Normalize(data, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, data, res.Data)
	assert.Equal(t, "image/png", res.ContentType, "el tipo se resuelve por contenido, no por el hint")
}

func TestNormalize_BMPSeConvierteAJPEG(t *testing.T) {
	data := encodeWith(t, func(b *bytes.Buffer) error { return bmp.Encode(b, sampleRGBA()) })

	res, err := media.Normalize(data, "image/bmp")
	require.NoError(t, err)
	assert.True(t, res.Converted)
	assert.Equal(t, "bmp", res.Format)
	assert.Equal(t, "image/jpeg", res.ContentType)

	decoded, format, err := image.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err, "la salida debe ser un JPEG válido")
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 8, 6), decoded.Bounds())
}

func TestNormalize_GIFConPaletaSeConvierteAJPEG(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 5, 5), palette.Plan9)
	img.SetColorIndex(2, 2, 7)
	data := encodeWith(t, func(b *bytes.Buffer) error { return gif.Encode(b, img, nil) })

	res, err := media.Normalize(data, "image/gif")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", res.ContentType)
	_, format, err := image.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalize_BytesCorruptos(t *testing.T) {
	_, err := media.Normalize([]byte("esto no es una imagen"), "image/jpeg")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDecode)

	_, err = media.Normalize(nil, "")
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestFlattenRGB_DescartaAlfa(t *testing.T) {
	src := image.NewNRGBA(image.Rect(2, 2, 4, 4))
	src.SetNRGBA(2, 2, color.NRGBA{R: 200, G: 100, B: 50, A: 0x80})

	dst := media.FlattenRGB(src)
	assert.Equal(t, image.Rect(0, 0, 2, 2), dst.Bounds())
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 0xff}, dst.RGBAAt(0, 0))
}

func TestNormalizeLimit_RechazaPorPixeles(t *testing.T) {
	data := encodeWith(t, func(b *bytes.Buffer) error { return bmp.Encode(b, sampleRGBA()) })

	_, err := media.NormalizeLimit(data, "image/bmp", 47)
	assert.ErrorIs(t, err, domain.ErrDecode)

	res, err := media.NormalizeLimit(data, "image/bmp", 48)
	require.NoError(t, err)
	assert.True(t, res.Converted)

	png8x6 := encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, sampleRGBA()) })
	_, err = media.NormalizeLimit(png8x6, "image/png", 10)
	assert.ErrorIs(t, err, domain.ErrDecode, "el límite también aplica a los formatos que pasan sin cambios")
}

func TestNormalize_CabeceraGigantePocosBytes(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), palette.Plan9)
	data := encodeWith(t, func(b *bytes.Buffer) error { return gif.Encode(b, img, nil) })
	// pantalla lógica 65535x65535 (bytes 6..9, little endian)
	data[6], data[7], data[8], data[9] = 0xff, 0xff, 0xff, 0xff

	_, err := media.Normalize(data, "image/gif")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDecode)
	assert.Contains(t, err.Error(), "65535x65535")
}
