package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/hierarchy-api/internal/application/dto"
	"github.com/jhoicas/hierarchy-api/internal/domain"
)

// errorCode código estable del error para el cuerpo HTTP y las métricas.
func errorCode(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return "VALIDATION"
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrPreconditionFailed):
		return "PRECONDITION_FAILED"
	case errors.Is(err, domain.ErrRemote):
		return "REMOTE"
	case errors.Is(err, domain.ErrConfiguration):
		return "CONFIGURATION"
	}
	return "INTERNAL"
}

// writeError traduce errores de dominio a status + dto.ErrorResponse.
// Los mensajes del colaborador de datos se devuelven tal cual.
func writeError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	var re *domain.RemoteError
	code := errorCode(err)
	switch code {
	case "VALIDATION":
		errors.As(err, &ve)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: ve.Message, Field: ve.Field})
	case "NOT_FOUND":
		msg := domain.ErrUserNotFound.Error()
		if errors.As(err, &re) {
			msg = re.UserMessage()
		}
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: code, Message: msg})
	case "PRECONDITION_FAILED":
		msg := err.Error()
		if errors.As(err, &re) {
			msg = re.UserMessage()
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: code, Message: msg})
	case "REMOTE":
		msg := domain.ErrRemote.Error()
		if errors.As(err, &re) {
			msg = re.UserMessage()
		}
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: code, Message: msg})
	}
	// CONFIGURATION: rol almacenado fuera de la cadena u otro defecto de despliegue.
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}
