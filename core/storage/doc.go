// Package storage provides an abstraction layer for object storage services.
//
// The Client interface is the only object store capability the media layer
// depends on: metadata inspection (StatObject), payload transfer (GetObject,
// PutObject), server-side copy with metadata replacement (CopyObject) and
// deletion (RemoveObject).
//
// # Drivers
//
//   - minio (default): MinIO Go client, works against MinIO and AWS S3.
//   - s3: AWS SDK for Go v2, streaming uploads through the s3 manager.
//   - memory: in-process store for development and tests.
//
// When Config.UseIAM is set the static access keys are never handed to the
// driver; credentials come from the driver's ambient chain instead.
//
// # Errors
//
// Driver errors keep their original type in the chain and are additionally
// tagged with ErrNotFound or ErrPreconditionFailed where they apply.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	info, err := client.StatObject(ctx, "media", "2024/a.jpg")
package storage
