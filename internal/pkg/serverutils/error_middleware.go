package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"watchfolio-be/internal/pkg/logger"
	"watchfolio-be/pkg/assistant"
)

// ErrorHandlerMiddleware maps domain errors to HTTP statuses.
// Anything unmapped is a 500.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.Is(err, assistant.ErrBusy):
			code = fiber.StatusConflict
		case errors.Is(err, assistant.ErrSessionNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, assistant.ErrInvalidMode), errors.Is(err, assistant.ErrEmptyMessage):
			code = fiber.StatusBadRequest
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("http", "request failed", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err.Error(),
			})
		}

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
