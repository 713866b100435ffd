package media

import (
	"errors"

	"media-store/core/storage"
)

var (
	// ErrInvalidArgument is returned before any store request is issued when a
	// path, payload or option is malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConfiguration is returned when no bucket can be resolved for a call.
	ErrConfiguration = errors.New("configuration error")
	// ErrProtocolViolation is returned when the references metadata is present
	// but is not a positive decimal integer.
	ErrProtocolViolation = errors.New("reference count protocol violation")
	// ErrConflict is returned when a reference update kept losing to
	// concurrent writers of the same object.
	ErrConflict = errors.New("reference count update conflict")
	// ErrUnsupported is returned by operations this provider does not offer.
	ErrUnsupported = errors.New("operation not supported")

	// ErrNotFound matches store errors for missing objects.
	ErrNotFound = storage.ErrNotFound
)
