package library

import (
	"errors"

	featuremedia "media-store/feature/media"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrRecordNotFound is returned when no record has the requested ID.
	ErrRecordNotFound = errors.New("record not found")
	// ErrPathInUse is returned when uploading to a path other records already
	// share. Use Copy to add a record to an existing object.
	ErrPathInUse = errors.New("media path already in use")
)

// StatusFor maps library errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrPathInUse):
		return fiber.StatusConflict
	default:
		return featuremedia.StatusFor(err)
	}
}
