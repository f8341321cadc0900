package storage

import (
	"context"
	"io"
)

// Storage archives raw uploaded files in an S3-compatible object store.
// Implementations must be safe for concurrent use and rely on streaming I/O
// only, never local disk.
type Storage interface {
	// Put uploads an object under the given key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get retrieves an object's content as a streaming reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}
