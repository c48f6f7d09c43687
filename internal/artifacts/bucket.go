package artifacts

import (
	"context"
	"crypto/md5"
	"fmt"

	"cloud.google.com/go/storage"
)

const cacheControl = "public, max-age=31536000"

// Bucket stores one object.
type Bucket interface {
	Put(ctx context.Context, path, contentType string, data []byte) error
}

// GCSBucket writes objects to a Cloud Storage bucket.
type GCSBucket struct {
	handle *storage.BucketHandle
}

func NewGCSBucket(handle *storage.BucketHandle) *GCSBucket {
	return &GCSBucket{handle: handle}
}

// Put uploads in a single request and lets the server verify the MD5.
func (b *GCSBucket) Put(ctx context.Context, path, contentType string, data []byte) error {
	sum := md5.Sum(data)

	w := b.handle.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = cacheControl
	w.MD5 = sum[:]
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}
