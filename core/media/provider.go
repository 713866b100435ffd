package media

import (
	"context"
	"fmt"
	"io"

	"media-store/core/storage"

	"go.uber.org/zap"
)

// Provider stores media in an object store and tracks how many logical media
// records share each stored object.
type Provider struct {
	client        storage.Client
	bucket        string
	defaultBucket string
	maxRetries    int
	logger        *zap.Logger
	locks         *keyLocks
}

// NewProvider creates a provider. Buckets resolve per call in the order
// WithBucket option, cfg.Bucket, defaultBucket.
func NewProvider(client storage.Client, cfg Config, defaultBucket string, logger *zap.Logger) *Provider {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		client:        client,
		bucket:        cfg.Bucket,
		defaultBucket: defaultBucket,
		maxRetries:    retries,
		logger:        logger,
		locks:         newKeyLocks(),
	}
}

// request is a validated (bucket, key) target.
type request struct {
	bucket string
	key    string
	opts   callOptions
}

func (r request) String() string {
	return r.bucket + "/" + r.key
}

func (p *Provider) request(mediaPath string, opts []Option) (request, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return request{}, err
	}
	key := Normalize(mediaPath)
	if key == "" {
		return request{}, fmt.Errorf("%w: empty media path %q", ErrInvalidArgument, mediaPath)
	}

	bucket := o.bucket
	if bucket == "" {
		bucket = p.bucket
	}
	if bucket == "" {
		bucket = p.defaultBucket
	}
	if bucket == "" {
		return request{}, fmt.Errorf("%w: no bucket configured", ErrConfiguration)
	}
	return request{bucket: bucket, key: key, opts: o}, nil
}

// Get returns the whole object payload.
func (p *Provider) Get(ctx context.Context, mediaPath string, opts ...Option) ([]byte, error) {
	body, err := p.GetStream(ctx, mediaPath, opts...)
	if err != nil {
		return nil, err
	}
	return drain(body)
}

// GetStream returns the object payload as an open stream. The caller must
// close it.
func (p *Provider) GetStream(ctx context.Context, mediaPath string, opts ...Option) (io.ReadCloser, error) {
	req, err := p.request(mediaPath, opts)
	if err != nil {
		return nil, err
	}
	return p.client.GetObject(ctx, req.bucket, req.key)
}

// Set writes payload at mediaPath as a new object with a single reference.
// Overwriting an existing object resets its reference count.
func (p *Provider) Set(ctx context.Context, payload Payload, mediaPath string, opts ...Option) (storage.UploadInfo, error) {
	req, err := p.request(mediaPath, opts)
	if err != nil {
		return storage.UploadInfo{}, err
	}
	if !payload.valid() {
		return storage.UploadInfo{}, fmt.Errorf("%w: empty payload", ErrInvalidArgument)
	}

	info, err := p.client.PutObject(ctx, req.bucket, req.key, payload.reader, payload.size, storage.PutOptions{
		ContentType: req.opts.contentType,
		Metadata:    map[string]string{storage.MetaReferences: "1"},
	})
	if err != nil {
		return storage.UploadInfo{}, err
	}
	p.logger.Debug("Stored media", zap.Stringer("object", req), zap.Int64("size", info.Size))
	return info, nil
}

// SetStream is Set for a stream of unknown length.
func (p *Provider) SetStream(ctx context.Context, r io.Reader, mediaPath string, opts ...Option) (storage.UploadInfo, error) {
	return p.Set(ctx, Stream(r, -1), mediaPath, opts...)
}

// CreateWriteStream is not supported; it always returns ErrUnsupported.
func (p *Provider) CreateWriteStream(ctx context.Context, mediaPath string) (io.WriteCloser, error) {
	return nil, fmt.Errorf("%w: write streams", ErrUnsupported)
}

// Stat returns the object metadata without transferring the payload.
func (p *Provider) Stat(ctx context.Context, mediaPath string, opts ...Option) (storage.ObjectInfo, error) {
	req, err := p.request(mediaPath, opts)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	return p.client.StatObject(ctx, req.bucket, req.key)
}

// Exists reports whether the object can be inspected. Any failure, not only
// a missing object, reads as false; use Stat to tell failures apart.
func (p *Provider) Exists(ctx context.Context, mediaPath string, opts ...Option) bool {
	if _, err := p.Stat(ctx, mediaPath, opts...); err != nil {
		p.logger.Debug("Media not accessible", zap.String("path", mediaPath), zap.Error(err))
		return false
	}
	return true
}
