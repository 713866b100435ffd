package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data         []byte
	contentType  string
	metadata     map[string]string
	etag         string
	lastModified time.Time
}

// MemoryClient is an in-process Client. ETags are content MD5s, so a
// metadata-only self-copy keeps the ETag, as on S3.
type MemoryClient struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*memoryObject
}

// NewMemoryClient creates an empty in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{buckets: make(map[string]map[string]*memoryObject)}
}

func (m *MemoryClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *MemoryClient) MakeBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[strings.Clone(bucket)] = make(map[string]*memoryObject)
	}
	return nil
}

func (m *MemoryClient) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, err := m.lookup(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Bucket:       bucket,
		Key:          key,
		Size:         int64(len(obj.data)),
		ETag:         obj.etag,
		ContentType:  obj.contentType,
		LastModified: obj.lastModified,
		Metadata:     lowerKeys(obj.metadata),
	}, nil
}

func (m *MemoryClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, err := m.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryClient) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts PutOptions) (UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return UploadInfo{}, err
	}
	if size >= 0 && int64(len(data)) != size {
		return UploadInfo{}, fmt.Errorf("size mismatch: expected %d bytes, read %d", size, len(data))
	}
	sum := md5.Sum(data)
	obj := &memoryObject{
		data:         data,
		contentType:  strings.Clone(opts.ContentType),
		metadata:     cloneMetadata(opts.Metadata),
		etag:         hex.EncodeToString(sum[:]),
		lastModified: time.Now().UTC(),
	}
	if obj.contentType == "" {
		obj.contentType = "application/octet-stream"
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	objects, ok := m.buckets[bucket]
	if !ok {
		objects = make(map[string]*memoryObject)
		m.buckets[strings.Clone(bucket)] = objects
	}
	objects[strings.Clone(key)] = obj
	return UploadInfo{Bucket: bucket, Key: key, ETag: obj.etag, Size: int64(len(data))}, nil
}

func (m *MemoryClient) CopyObject(ctx context.Context, bucket, srcKey, dstKey string, opts CopyOptions) (UploadInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, err := m.lookup(bucket, srcKey)
	if err != nil {
		return UploadInfo{}, err
	}
	if opts.MatchETag != "" && opts.MatchETag != src.etag {
		return UploadInfo{}, fmt.Errorf("%w: etag %s does not match %s", ErrPreconditionFailed, opts.MatchETag, src.etag)
	}

	dst := &memoryObject{
		data:         src.data,
		contentType:  src.contentType,
		metadata:     src.metadata,
		etag:         src.etag,
		lastModified: time.Now().UTC(),
	}
	if opts.ReplaceMetadata {
		dst.metadata = cloneMetadata(opts.Metadata)
		if opts.ContentType != "" {
			dst.contentType = strings.Clone(opts.ContentType)
		}
	}
	m.buckets[bucket][strings.Clone(dstKey)] = dst
	return UploadInfo{Bucket: bucket, Key: dstKey, ETag: dst.etag, Size: int64(len(dst.data))}, nil
}

func (m *MemoryClient) RemoveObject(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if objects, ok := m.buckets[bucket]; ok {
		delete(objects, key)
	}
	return nil
}

// cloneMetadata lower-cases keys and copies every string, since callers may
// pass strings backed by buffers they reuse.
func cloneMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.Clone(strings.ToLower(k))] = strings.Clone(v)
	}
	return out
}

// lookup expects m.mu to be held.
func (m *MemoryClient) lookup(bucket, key string) (*memoryObject, error) {
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: bucket %s", ErrNotFound, bucket)
	}
	obj, ok := objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	return obj, nil
}
