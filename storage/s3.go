package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config carries connection settings for an S3-compatible object store.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicBaseURL is the prefix public object URLs are built from, e.g.
	// https://cdn.example.com. Falls back to the endpoint when empty.
	PublicBaseURL string
}

// S3Gateway is the production Gateway backed by an S3-compatible service.
type S3Gateway struct {
	client        *minio.Client
	publicBaseURL string
}

// NewS3Gateway connects to the object store. Missing credentials are a
// startup error; the process should refuse to boot rather than return 500s
// lazily per request.
func NewS3Gateway(cfg S3Config) (*S3Gateway, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("object storage is not configured: endpoint, access key and secret key are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}
	return &S3Gateway{client: client, publicBaseURL: base}, nil
}

// Upload stores bytes at key and returns the public URL.
func (g *S3Gateway) Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := g.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	return g.mustPublicURL(bucket, key), nil
}

// PublicURL builds the public URL for an object key.
func (g *S3Gateway) PublicURL(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", fmt.Errorf("bucket and key are required")
	}
	return g.mustPublicURL(bucket, key), nil
}

// Remove batch-deletes the given keys and returns the first failure.
func (g *S3Gateway) Remove(ctx context.Context, bucket string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	objects := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- minio.ObjectInfo{Key: k}
	}
	close(objects)
	for res := range g.client.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
		if res.Err != nil {
			return fmt.Errorf("remove %s/%s: %w", bucket, res.ObjectName, res.Err)
		}
	}
	return nil
}

// Download streams an object's bytes.
func (g *S3Gateway) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := g.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	// GetObject is lazy; surface missing objects before handing the reader out.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	return obj, nil
}

func (g *S3Gateway) mustPublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", g.publicBaseURL, bucket, strings.TrimPrefix(key, "/"))
}
