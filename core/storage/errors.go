package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches errors for missing objects or buckets.
	ErrNotFound = errors.New("object not found")
	// ErrPreconditionFailed matches errors for a failed conditional request.
	ErrPreconditionFailed = errors.New("precondition failed")
)

// classify tags a backend error with a sentinel while keeping the original
// error in the chain, so both errors.Is(err, ErrNotFound) and errors.As on the
// backend's own error type keep working.
func classify(err error, code string, status int) error {
	switch {
	case code == "NoSuchKey" || code == "NotFound" || code == "NoSuchBucket" || status == 404:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case code == "PreconditionFailed" || status == 412:
		return fmt.Errorf("%w: %w", ErrPreconditionFailed, err)
	default:
		return err
	}
}
