package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Key prefixes inside the buckets. Attachments and editor images live under
// separate prefixes per content kind so a bucket listing stays navigable.
const (
	PrefixBoardAttachments = "public/attachments"
	PrefixBoardImages      = "public/posts"
	PrefixJobAttachments   = "public/job-attachments"
	PrefixJobImages        = "public/job-images"
)

// Gateway moves bytes in and out of the two logical buckets: one for
// arbitrary uploaded attachments, one for images embedded in rich-text
// content. Implementations must be safe for concurrent use.
type Gateway interface {
	// Upload stores the reader's bytes at the given bucket-relative key and
	// returns the publicly fetchable URL for the object.
	Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error)
	// PublicURL returns the public URL for an existing key without touching
	// the network.
	PublicURL(bucket, key string) (string, error)
	// Remove batch-deletes objects. The first failure is returned so callers
	// can abort the surrounding transaction instead of committing against
	// half-deleted storage.
	Remove(ctx context.Context, bucket string, keys []string) error
	// Download streams object bytes for authenticated downloads that bypass
	// the public URL.
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Buckets names the two logical buckets a Gateway serves.
type Buckets struct {
	Attachments string
	Images      string
}

// GenerateKey builds a collision-free bucket-relative key under prefix,
// keeping the original file extension: <prefix>/<unixnano>_<rand8><ext>.
func GenerateKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	rand := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d_%s%s", strings.TrimSuffix(prefix, "/"), time.Now().UnixNano(), rand, ext)
}
