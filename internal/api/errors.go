package api

import (
	"errors"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is the fiber fallback for errors returned by handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	// Default to 500 status code
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}

// statusFor maps a domain error to the HTTP status served for it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrSuperseded):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrTransient):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func messageFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "Invalid request"
	case fiber.StatusNotFound:
		return "Place not found"
	case fiber.StatusConflict:
		return "Search superseded by a newer request"
	case fiber.StatusBadGateway:
		return "Weather provider unavailable"
	default:
		return "Internal server error"
	}
}

func (h *Handler) respondError(c *fiber.Ctx, err error, fields ...zap.Field) error {
	status := statusFor(err)
	fields = append(fields, zap.Int("status", status), zap.Error(err))

	switch {
	case status == fiber.StatusConflict:
		h.logger.Debug("Request superseded", fields...)
	case status >= fiber.StatusInternalServerError:
		h.logger.Error("Request failed", fields...)
	default:
		h.logger.Info("Request rejected", fields...)
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   messageFor(status),
		"details": err.Error(),
	})
}
