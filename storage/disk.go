package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskGateway stores objects under a local directory, one subdirectory per
// bucket, and serves them through the router's /static mount. Used for
// development and tests; production uses S3Gateway.
type DiskGateway struct {
	root          string
	publicBaseURL string
}

// NewDiskGateway creates the root directory when absent.
func NewDiskGateway(root, publicBaseURL string) (*DiskGateway, error) {
	if root == "" {
		return nil, fmt.Errorf("disk storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &DiskGateway{root: root, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

func (g *DiskGateway) Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error) {
	dst := g.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("save %s/%s: %w", bucket, key, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s/%s: %w", bucket, key, err)
	}
	return g.url(bucket, key), nil
}

func (g *DiskGateway) PublicURL(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", fmt.Errorf("bucket and key are required")
	}
	return g.url(bucket, key), nil
}

func (g *DiskGateway) Remove(ctx context.Context, bucket string, keys []string) error {
	for _, k := range keys {
		if err := os.Remove(g.objectPath(bucket, k)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s/%s: %w", bucket, k, err)
		}
	}
	return nil
}

func (g *DiskGateway) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f, err := os.Open(g.objectPath(bucket, key))
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	return f, nil
}

func (g *DiskGateway) objectPath(bucket, key string) string {
	return filepath.Join(g.root, bucket, filepath.FromSlash(key))
}

func (g *DiskGateway) url(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", g.publicBaseURL, bucket, strings.TrimPrefix(key, "/"))
}
