package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/makiti/market-api/internal/application/dto"
	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/domain/catalog"
	"github.com/makiti/market-api/pkg/logger"
)

// writeError traduce errores de dominio a status + dto.ErrorResponse.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, body := mapError(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", status).Msg("error en petición")
	}
	return c.Status(status).JSON(body)
}

func mapError(err error) (int, dto.ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"}
	case errors.Is(err, domain.ErrDecode):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "INVALID_IMAGE", Message: "la imagen no se puede decodificar"}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error(), Fields: fieldErrors(err)}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"}
	case errors.Is(err, domain.ErrObjectNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "OBJECT_NOT_FOUND", Message: "objeto no encontrado"}
	case errors.Is(err, domain.ErrStorage):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "STORAGE_ERROR", Message: "error del almacenamiento de objetos"}
	case errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "UNAVAILABLE", Message: "servicio no disponible"}
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, dto.ErrorResponse{Code: "TIMEOUT", Message: "tiempo de espera agotado"}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
}

func fieldErrors(err error) []dto.FieldError {
	fes := catalog.FieldErrors(err)
	if len(fes) == 0 {
		return nil
	}
	out := make([]dto.FieldError, 0, len(fes))
	for _, fe := range fes {
		out = append(out, dto.FieldError{Field: fe.Field, Message: fe.Message})
	}
	return out
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message})
}
