package lmdbstore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned for nil or empty keys, and for string keys
	// that cannot be encoded with the configured key encoding.
	ErrInvalidKey = errors.New("lmdbstore: invalid key")

	// ErrUnsupportedKey is returned when a key is neither []byte nor string,
	// or when a string key is used without a configured key encoding.
	ErrUnsupportedKey = errors.New("lmdbstore: unsupported key type")

	// ErrStoreClosed is returned by any operation attempted after Close
	// has been initiated.
	ErrStoreClosed = errors.New("lmdbstore: store is closed or closing")

	// ErrReadOnly is returned by mutating operations on a store opened
	// with WithReadonly.
	ErrReadOnly = errors.New("lmdbstore: store is read-only")

	// ErrSerialize is returned when a value cannot be serialized by the
	// configured codec.
	ErrSerialize = errors.New("lmdbstore: value cannot be serialized")

	// ErrCorruptRecord is returned when stored or buffered bytes cannot be
	// deserialized. The wrapped message names the key and whether the bytes
	// came from the write buffer or from the database.
	ErrCorruptRecord = errors.New("lmdbstore: record cannot be deserialized")

	// ErrKeyNotFound is returned by Fetch for absent keys.
	ErrKeyNotFound = errors.New("lmdbstore: key not found")

	// ErrMapFull is returned when the map cannot grow any further because
	// the configured maximum map size has been reached.
	ErrMapFull = errors.New("lmdbstore: map size at configured maximum")
)

// EngineError wraps a failure surfaced by the underlying LMDB environment
// that is not part of the store's own error taxonomy.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("lmdbstore: engine %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

func wrapEngine(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: op, Err: err}
}
