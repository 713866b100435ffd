package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// MetaReferences is the user metadata field holding an object's reference count.
const MetaReferences = "references"

// Client defines the object store operations the media layer depends on.
type Client interface {
	// BucketExists checks if a bucket exists.
	BucketExists(ctx context.Context, bucket string) (bool, error)
	// MakeBucket creates a new bucket.
	MakeBucket(ctx context.Context, bucket string) error
	// StatObject returns object metadata without transferring the payload.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// GetObject opens the object payload. The caller closes the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	// PutObject uploads an object. size is -1 when unknown.
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts PutOptions) (UploadInfo, error)
	// CopyObject copies srcKey onto dstKey inside bucket.
	CopyObject(ctx context.Context, bucket, srcKey, dstKey string, opts CopyOptions) (UploadInfo, error)
	// RemoveObject deletes an object from a bucket.
	RemoveObject(ctx context.Context, bucket, key string) error
}

// ObjectInfo is the result of a metadata-only inspection.
type ObjectInfo struct {
	Bucket       string            `json:"bucket"`
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ETag         string            `json:"etag"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata"`
}

// References returns the raw reference count metadata and whether it is set.
func (o ObjectInfo) References() (string, bool) {
	v, ok := o.Metadata[MetaReferences]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// UploadInfo describes the object written by a put or copy.
type UploadInfo struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	ETag   string `json:"etag"`
	Size   int64  `json:"size"`
}

// PutOptions are applied to PutObject.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// CopyOptions are applied to CopyObject.
type CopyOptions struct {
	// ReplaceMetadata replaces the destination metadata with Metadata instead of
	// copying it from the source.
	ReplaceMetadata bool
	Metadata        map[string]string
	ContentType     string
	// MatchETag makes the copy conditional on the source ETag.
	MatchETag string
}

// NewClient builds the client selected by cfg.Driver.
func NewClient(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.driver() {
	case DriverS3:
		return newS3Client(cfg)
	case DriverMemory:
		return NewMemoryClient(), nil
	default:
		return newMinioClient(cfg)
	}
}

// EnsureBucket creates bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, client Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

func trimETag(etag string) string {
	return strings.Trim(etag, "\"")
}
