package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	head      *s3.HeadObjectOutput
	err       error
	putInput  *s3.PutObjectInput
	copyInput *s3.CopyObjectInput
	deleted   *s3.DeleteObjectInput
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.err
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	return &s3.CreateBucketOutput{}, f.err
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.head, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("payload"))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putInput = params
	return &s3.PutObjectOutput{ETag: aws.String(`"abc"`)}, f.err
}

func (f *fakeS3) CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.copyInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.CopyObjectOutput{CopyObjectResult: &types.CopyObjectResult{ETag: aws.String(`"abc"`)}}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = params
	return &s3.DeleteObjectOutput{}, f.err
}

func TestS3Client_StatObject(t *testing.T) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	api := &fakeS3{head: &s3.HeadObjectOutput{
		ContentLength: aws.Int64(42),
		ETag:          aws.String(`"abc"`),
		ContentType:   aws.String("image/png"),
		LastModified:  aws.Time(modified),
		Metadata:      map[string]string{"References": "2"},
	}}
	client := &s3Client{api: api, region: "us-east-1"}

	info, err := client.StatObject(context.Background(), "media", "2024/a.png")
	require.NoError(t, err)
	assert.Equal(t, int64(42), info.Size)
	assert.Equal(t, "abc", info.ETag)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, modified, info.LastModified)
	assert.Equal(t, "2", info.Metadata["references"])
}

func TestS3Client_CopyObject(t *testing.T) {
	api := &fakeS3{}
	client := &s3Client{api: api, region: "us-east-1"}

	_, err := client.CopyObject(context.Background(), "media", "2024/my file.png", "2024/my file.png", CopyOptions{
		ReplaceMetadata: true,
		Metadata:        map[string]string{"references": "3"},
		ContentType:     "image/png",
		MatchETag:       "abc",
	})
	require.NoError(t, err)

	in := api.copyInput
	require.NotNil(t, in)
	assert.Equal(t, "media/2024/my%20file.png", aws.ToString(in.CopySource))
	assert.Equal(t, "2024/my file.png", aws.ToString(in.Key))
	assert.Equal(t, types.MetadataDirectiveReplace, in.MetadataDirective)
	assert.Equal(t, "3", in.Metadata["references"])
	assert.Equal(t, "abc", aws.ToString(in.CopySourceIfMatch))
	assert.Equal(t, "image/png", aws.ToString(in.ContentType))
}

func TestS3Client_PutObject(t *testing.T) {
	t.Run("KnownSize", func(t *testing.T) {
		api := &fakeS3{}
		client := &s3Client{api: api, region: "us-east-1"}

		info, err := client.PutObject(context.Background(), "media", "a.txt", strings.NewReader("hi"), 2, PutOptions{
			Metadata: map[string]string{"references": "1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "abc", info.ETag)
		assert.Equal(t, int64(2), aws.ToInt64(api.putInput.ContentLength))
		assert.Equal(t, "1", api.putInput.Metadata["references"])
	})

	t.Run("UnknownSizeUsesUploader", func(t *testing.T) {
		var uploaded *s3.PutObjectInput
		client := &s3Client{
			api: &fakeS3{},
			upload: func(ctx context.Context, input *s3.PutObjectInput) (string, error) {
				uploaded = input
				return `"def"`, nil
			},
		}

		info, err := client.PutObject(context.Background(), "media", "a.txt", strings.NewReader("hi"), -1, PutOptions{})
		require.NoError(t, err)
		assert.Equal(t, "def", info.ETag)
		require.NotNil(t, uploaded)
		assert.Nil(t, uploaded.ContentLength)
	})
}

func TestS3Error(t *testing.T) {
	notFound := &smithy.GenericAPIError{Code: "NotFound", Message: "missing"}
	client := &s3Client{api: &fakeS3{err: notFound}}

	_, err := client.StatObject(context.Background(), "media", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	var apiErr smithy.APIError
	assert.True(t, errors.As(err, &apiErr))

	exists, err := client.BucketExists(context.Background(), "media")
	assert.NoError(t, err)
	assert.False(t, exists)

	precondition := &smithy.GenericAPIError{Code: "PreconditionFailed"}
	client = &s3Client{api: &fakeS3{err: precondition}}
	_, err = client.CopyObject(context.Background(), "media", "x", "x", CopyOptions{MatchETag: "abc"})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	assert.NoError(t, s3Error(nil))
}

func TestMinioError(t *testing.T) {
	err := minioError(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})
	assert.ErrorIs(t, err, ErrNotFound)

	err = minioError(minio.ErrorResponse{Code: "PreconditionFailed", StatusCode: 412})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	err = minioError(denied)
	assert.Equal(t, denied, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.NoError(t, minioError(nil))
}
