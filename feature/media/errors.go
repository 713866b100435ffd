package media

import (
	"errors"

	"media-store/core/media"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps provider errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, media.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, media.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, media.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, media.ErrProtocolViolation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, media.ErrUnsupported):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}
