package storage

import (
	"context"
	"io"
)

// ObjectStorage defines minimal object storage operations required by the
// submission archive flow. It is intentionally small so we can swap
// MinIO/AWS-S3 implementations without touching business logic.
type ObjectStorage interface {
	// PutObject stores an object with the given size and content type.
	PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error
}
