package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/makiti/market-api/internal/application/dto"
	"github.com/makiti/market-api/internal/application/ingestion"
	"github.com/makiti/market-api/pkg/logger"
)

// ImageHandler rutas de mantenimiento de imágenes de producto.
type ImageHandler struct {
	svc      *ingestion.ProductImageService
	pipeline *ingestion.Pipeline
	maxBytes int64
	log      *logger.Logger
}

// NewImageHandler maxBytes limita el tamaño del archivo subido.
func NewImageHandler(svc *ingestion.ProductImageService, pipeline *ingestion.Pipeline, maxBytes int64, log *logger.Logger) *ImageHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ImageHandler{svc: svc, pipeline: pipeline, maxBytes: maxBytes, log: log.Component("http.images")}
}

// Upload godoc
// @Summary      Subir imagen de producto
// @Description  Publica el archivo como {id}.jpg (JPEG/PNG/WEBP sin cambios, otros formatos se convierten a JPEG) y asigna image_url.
// @Tags         images
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "ID del producto"
// @Param        file  formData  file    true  "Imagen"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/v1/admin/products/{id}/image [post]
func (h *ImageHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "MISSING_FILE", "campo file requerido")
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return badRequest(c, "FILE_TOO_LARGE", fmt.Sprintf("el archivo supera %d bytes", h.maxBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "INVALID_FILE", "no se pudo leer el archivo")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return badRequest(c, "INVALID_FILE", "no se pudo leer el archivo")
	}

	out, err := h.svc.AttachImage(c.UserContext(), c.Params("id"), data, fh.Header.Get("Content-Type"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Remove godoc
// @Summary      Eliminar imagen de producto
// @Tags         images
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/v1/admin/products/{id}/image [delete]
func (h *ImageHandler) Remove(c *fiber.Ctx) error {
	out, err := h.svc.DetachImage(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Fetch godoc
// @Summary      Leer objeto por clave
// @Tags         images
// @Produce      octet-stream
// @Param        key  path  string  true  "Clave del objeto"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/v1/admin/images/{key} [get]
func (h *ImageHandler) Fetch(c *fiber.Ctx) error {
	key := strings.TrimLeft(c.Params("*"), "/")
	if key == "" {
		return badRequest(c, "MISSING_KEY", "clave requerida")
	}
	data, err := h.pipeline.Fetch(c.UserContext(), key)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(data))
	return c.Send(data)
}

// Import godoc
// @Summary      Importar imagen desde URL
// @Description  Encola un trabajo image.import que descarga la URL y la publica para el producto.
// @Tags         images
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ImageImportRequest  true  "Producto y URL de origen"
// @Success      202   {object}  dto.ImageImportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/v1/admin/images/import [post]
func (h *ImageHandler) Import(c *fiber.Ctx) error {
	var in dto.ImageImportRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.svc.RequestImport(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}
