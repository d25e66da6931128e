package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mohammad-safakhou/worstcrm/config"
)

// ErrInvalidKey is returned for object key segments that would escape the
// owning record's prefix.
var ErrInvalidKey = errors.New("objectstore: invalid object key")

// Presigner issues time-limited URLs for attachment objects and deletes
// them. It never moves bytes itself.
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
	PresignPut(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// Key joins the ownership chain and a filename into an object key, e.g.
// account/project/task/filename.
func Key(segments ...string) (string, error) {
	if len(segments) == 0 {
		return "", ErrInvalidKey
	}
	for _, s := range segments {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "/\\") {
			return "", fmt.Errorf("%w: segment %q", ErrInvalidKey, s)
		}
	}
	return strings.Join(segments, "/"), nil
}

// MinioStore is the S3-compatible Presigner.
type MinioStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinio(cfg config.S3Config) (*MinioStore, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 10 * time.Minute
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, expiry: expiry}, nil
}

func (m *MinioStore) PresignGet(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return u.String(), nil
}

func (m *MinioStore) PresignPut(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, m.expiry)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return u.String(), nil
}

// Remove deletes key. Removing a missing object is not an error.
func (m *MinioStore) Remove(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
