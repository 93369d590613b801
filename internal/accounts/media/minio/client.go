// Package minio implements the media Uploader on a MinIO (S3-compatible)
// bucket.
package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/clipfeedhq/clipfeed/internal/accounts/media"
)

// minioAPI is the slice of *minio.Client this package uses, extracted so
// tests can inject a fake without a running server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}

func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}

func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

var _ media.Uploader = (*Client)(nil)

type Client struct {
	api     minioAPI
	bucket  string
	baseURL string // public URL prefix, no trailing slash
}

// NewClient wraps a real *minio.Client and ensures the bucket exists.
// baseURL is the public prefix uploaded objects are reachable under,
// e.g. "https://media.clipfeed.io".
func NewClient(ctx context.Context, client *minio.Client, bucket, baseURL string) (*Client, error) {
	return newClientWithAPI(ctx, minioClientWrapper{c: client}, bucket, baseURL)
}

func newClientWithAPI(ctx context.Context, api minioAPI, bucket, baseURL string) (*Client, error) {
	c := &Client{
		api:     api,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}

	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: failed to check bucket: %w", err)
	}
	if !exists {
		if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio: failed to create bucket: %w", err)
		}
	}

	return c, nil
}

// Upload stores the file under key and returns its public URL.
func (c *Client) Upload(ctx context.Context, key string, f media.File) (string, error) {
	_, err := c.api.PutObject(ctx, c.bucket, key, f.Reader, f.Size, minio.PutObjectOptions{
		ContentType: f.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio: failed to upload object: %w", err)
	}
	return c.baseURL + "/" + c.bucket + "/" + key, nil
}
