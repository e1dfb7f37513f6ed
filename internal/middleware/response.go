package middleware

import (
	"go-dropship-admin/internal/service"
	"go-dropship-admin/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// StatusOf maps a service error to its HTTP status.
func StatusOf(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation:
		return fiber.StatusBadRequest
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindPermissionDenied:
		return fiber.StatusForbidden
	case service.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// Fail writes the error envelope. Internal errors never expose their cause,
// only a correlation id that is also in the logs.
func Fail(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	body := fiber.Map{
		"status":  false,
		"message": service.MessageOf(err),
	}
	if status == fiber.StatusInternalServerError {
		id := service.CorrelationOf(err)
		if id == "" {
			id = uuid.NewString()
			logger.Default().Named("http").Errorf(err, "%s %s failed (correlation_id=%s)", c.Method(), c.Path(), id)
		}
		body["correlation_id"] = id
	}
	return c.Status(status).JSON(body)
}

func abort(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": false, "message": message})
}
