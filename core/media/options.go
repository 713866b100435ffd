package media

import (
	"fmt"

	"github.com/minio/minio-go/v7/pkg/s3utils"
)

// Option customizes a single provider call.
type Option func(*callOptions) error

type callOptions struct {
	bucket      string
	contentType string
}

// WithBucket overrides the configured bucket for one call.
func WithBucket(bucket string) Option {
	return func(o *callOptions) error {
		if err := s3utils.CheckValidBucketName(bucket); err != nil {
			return fmt.Errorf("%w: bucket %q: %v", ErrInvalidArgument, bucket, err)
		}
		o.bucket = bucket
		return nil
	}
}

// WithContentType sets the content type of a written object.
func WithContentType(contentType string) Option {
	return func(o *callOptions) error {
		o.contentType = contentType
		return nil
	}
}

func applyOptions(opts []Option) (callOptions, error) {
	var o callOptions
	for _, opt := range opts {
		if opt == nil {
			return o, fmt.Errorf("%w: nil option", ErrInvalidArgument)
		}
		if err := opt(&o); err != nil {
			return o, err
		}
	}
	return o, nil
}
