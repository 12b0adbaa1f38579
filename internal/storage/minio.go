package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bobarin/speechgate/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string // skips the bucket location lookup when set
	UseSSL    bool
}

// Minio keeps file content in an S3-compatible bucket.
type Minio struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

var _ Archive = (*Minio)(nil)

// NewMinio connects to the endpoint and makes sure the bucket exists.
func NewMinio(ctx context.Context, opts MinioOptions, logger *slog.Logger) (*Minio, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "archive.minio"))

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
		logger.Info("created bucket", slog.String("bucket", opts.Bucket))
	}

	return &Minio{client: client, bucket: opts.Bucket, logger: logger}, nil
}

func (m *Minio) Put(ctx context.Context, id, filename string, data []byte) error {
	key, err := ObjectKey(id, filename)
	if err != nil {
		return err
	}

	return withTimeout(ctx, func(ctx context.Context) error {
		_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		if err != nil {
			return fmt.Errorf("failed to put object %s: %w", key, err)
		}
		return nil
	})
}

func (m *Minio) Get(ctx context.Context, id, filename string) ([]byte, error) {
	key, err := ObjectKey(id, filename)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = withTimeout(ctx, func(ctx context.Context) error {
		obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return m.translate(id, key, err)
		}
		defer obj.Close()

		data, err = io.ReadAll(obj)
		if err != nil {
			return m.translate(id, key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete stats the object first; S3 deletes of missing keys succeed silently.
func (m *Minio) Delete(ctx context.Context, id, filename string) error {
	key, err := ObjectKey(id, filename)
	if err != nil {
		return err
	}

	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		return m.translate(id, key, err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

func (m *Minio) translate(id, key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("failed to access object %s: %w", key, err)
}
