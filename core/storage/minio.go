package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioClient struct {
	client *minio.Client
}

func newMinioClient(cfg Config) (*minioClient, error) {
	// Minio expects endpoint without scheme
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	timeout := time.Duration(timeoutSeconds(cfg)) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:     minioCredentials(cfg, transport),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &minioClient{client: client}, nil
}

// minioCredentials never hands empty static keys to the client: with UseIAM
// the keys are left out and the chain resolves them.
func minioCredentials(cfg Config, transport http.RoundTripper) *credentials.Credentials {
	if !cfg.UseIAM {
		return credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.EnvMinio{},
		&credentials.FileAWSCredentials{},
		&credentials.IAM{Client: &http.Client{Transport: transport}},
	})
}

func timeoutSeconds(cfg Config) int {
	if cfg.TimeoutSeconds <= 0 {
		return 30
	}
	return cfg.TimeoutSeconds
}

func (c *minioClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	ok, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, minioError(err)
	}
	return ok, nil
}

func (c *minioClient) MakeBucket(ctx context.Context, bucket string) error {
	return minioError(c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
}

func (c *minioClient) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := c.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, minioError(err)
	}
	return ObjectInfo{
		Bucket:       bucket,
		Key:          info.Key,
		Size:         info.Size,
		ETag:         trimETag(info.ETag),
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		Metadata:     lowerKeys(info.UserMetadata),
	}, nil
}

func (c *minioClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minioError(err)
	}
	// GetObject is lazy; Stat issues the request so a missing key fails here
	// instead of on the caller's first Read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, minioError(err)
	}
	return obj, nil
}

func (c *minioClient) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts PutOptions) (UploadInfo, error) {
	info, err := c.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return UploadInfo{}, minioError(err)
	}
	return UploadInfo{Bucket: info.Bucket, Key: info.Key, ETag: trimETag(info.ETag), Size: info.Size}, nil
}

func (c *minioClient) CopyObject(ctx context.Context, bucket, srcKey, dstKey string, opts CopyOptions) (UploadInfo, error) {
	meta := make(map[string]string, len(opts.Metadata)+1)
	for k, v := range opts.Metadata {
		meta[k] = v
	}
	// Standard headers in UserMetadata are sent as-is rather than as x-amz-meta-*.
	if opts.ReplaceMetadata && opts.ContentType != "" {
		meta["Content-Type"] = opts.ContentType
	}
	dst := minio.CopyDestOptions{
		Bucket:          bucket,
		Object:          dstKey,
		UserMetadata:    meta,
		ReplaceMetadata: opts.ReplaceMetadata,
	}
	src := minio.CopySrcOptions{
		Bucket:    bucket,
		Object:    srcKey,
		MatchETag: opts.MatchETag,
	}
	info, err := c.client.CopyObject(ctx, dst, src)
	if err != nil {
		return UploadInfo{}, minioError(err)
	}
	return UploadInfo{Bucket: info.Bucket, Key: info.Key, ETag: trimETag(info.ETag), Size: info.Size}, nil
}

func (c *minioClient) RemoveObject(ctx context.Context, bucket, key string) error {
	return minioError(c.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}))
}

func minioError(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	return classify(err, resp.Code, resp.StatusCode)
}
