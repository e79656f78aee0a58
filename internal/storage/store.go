package storage

import (
	"context"
	"io"
)

// Store defines the interface for a file storage backend used by export and import.
type Store interface {
	// Save replaces the file at path with the reader's content.
	Save(ctx context.Context, path string, reader io.Reader) (int64, error)
	// Get opens the file at path for reading.
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the file at path.
	Delete(ctx context.Context, path string) error
}
