package lmdbstore

import "io"

// ObjectReader wraps the read methods of a backing object store.
type ObjectReader interface {
	// Get retrieves the value stored under key, reporting whether it
	// was found.
	Get(key any) (any, bool, error)

	// GetInto decodes the value stored under key into out.
	GetInto(key any, out any) (bool, error)

	// Has reports whether key is present, without flushing the buffer.
	Has(key any) (bool, error)
}

// ObjectWriter wraps the buffered write methods of a backing object
// store.
type ObjectWriter interface {
	// Put stages a value to be stored under key.
	Put(key, value any) error

	// Delete stages the removal of key.
	Delete(key any) error
}

// Flusher wraps the Flush method of a backing object store.
type Flusher interface {
	// Flush commits all buffered operations in a single transaction.
	Flush() error
}

// Syncer wraps the Sync method of a backing object store.
type Syncer interface {
	// Sync forces a synchronous flush of the environment to disk.
	Sync() error
}

// ObjectStore contains the methods shared by the Store and its
// prefix-scoped Table views.
type ObjectStore interface {
	ObjectReader
	ObjectWriter
	Flusher
}

// FullStore is the complete surface of an owned store, including
// durability and lifecycle control.
type FullStore interface {
	ObjectStore
	Syncer
	io.Closer
}

var (
	_ FullStore   = (*Store)(nil)
	_ ObjectStore = (*Table)(nil)
)
