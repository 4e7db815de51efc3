// internal/storage/archive/interface.go
package archive

import "context"

// Storage is a cold blob store for collection snapshots.
type Storage interface {
	// Write stores data under key, replacing any previous object.
	Write(ctx context.Context, key string, data []byte) error

	// Read returns the object stored under key.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}
