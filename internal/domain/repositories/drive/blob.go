package drive

import (
	"context"
	"io"
)

// BlobStore holds file content keyed by content address.
// Identical uploads share one address, so Put of an existing address
// overwrites it with the same bytes.
type BlobStore interface {
	// Put stores content under address
	Put(ctx context.Context, address string, content []byte) error

	// Get opens the content stored under address.
	// Returns domain.ErrNotFound when nothing is stored there.
	Get(ctx context.Context, address string) (io.ReadCloser, error)
}
