package repo

import (
	"context"
)

// Storage is the persistence seam for guestbook notes.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Write stores data under the given key with the given content type.
	Write(ctx context.Context, key string, data []byte, contentType string) error

	// Read retrieves the data for the given key.
	// Returns os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns keys matching the given prefix, sorted alphabetically descending (newest first).
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data for the given key.
	// Returns nil if the key does not exist (idempotent).
	Delete(ctx context.Context, key string) error

	// Persistent reports whether data written here outlives the process.
	Persistent() bool

	// Close releases any resources held by the storage backend.
	Close() error
}
