package storage

import "context"

// ObjectStore defines the interface for uploaded image storage.
//
// Put and Publish are distinct steps: an object must be fully persisted
// before it can be made publicly readable, and the URL Publish returns is
// what the extraction client consumes.
type ObjectStore interface {
	// Put persists a blob under the given name with its content type.
	Put(ctx context.Context, name, contentType string, data []byte) error

	// Publish marks the stored object publicly readable and returns its
	// canonical public URL.
	Publish(ctx context.Context, name string) (string, error)

	// Get retrieves a stored blob and its content type.
	Get(ctx context.Context, name string) ([]byte, string, error)

	// Delete removes a stored object.
	Delete(ctx context.Context, name string) error
}
