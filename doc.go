// Package lmdbstore provides a thread-safe, write-buffered object store
// on top of LMDB (a memory-mapped, copy-on-write B-tree). Values of any
// serializable type are stored under byte or text keys; writes are
// batched in memory and flushed in single transactions, and the memory
// map grows automatically when it fills.
//
// # Overview
//
// lmdbstore wraps the LMDB environment to provide:
//   - Object-level Put/Get/Delete with a pluggable codec (MessagePack
//     by default)
//   - Write buffering with read-your-writes consistency and
//     last-write-wins semantics per key
//   - Automatic map growth with retry on full-map conditions, with an
//     optional size ceiling
//   - Safe concurrent use from many goroutines, including a close that
//     waits for in-flight reads
//   - Flexible keys: []byte always, string with a configurable
//     encoding and optional Unicode normalization
//
// # Quick Start
//
// Basic usage:
//
//	store, err := lmdbstore.Open("./data",
//	    lmdbstore.WithKeyEncodingName("utf-8"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	store.Put("user:1", map[string]any{"name": "alice"})
//	v, found, err := store.Get("user:1")
//	ok, err := store.Has("user:1")
//	store.Delete("user:1")
//
// Writes are buffered: they are visible to reads through the same store
// immediately, and become durable when the buffer reaches the batch
// size, on an explicit Flush, or on Close.
//
// # Keys
//
// []byte keys are stored verbatim. string keys require a key encoding
// and are optionally Unicode-normalized first, so equivalent
// representations address the same entry:
//
//	store, _ := lmdbstore.Open("./data",
//	    lmdbstore.WithKeyEncodingName("utf-8"),
//	    lmdbstore.WithNormalization(norm.NFC))
//
//	store.Put("café", 1)        // precomposed
//	v, _, _ := store.Get("café") // decomposed, same entry
//
// LMDB orders keys byte-lexicographically. Numeric keys should be
// zero-padded or fixed-width big-endian to sort numerically.
//
// # Bulk Operations
//
// PutMany writes a whole slice of items in one atomic transaction,
// flushing any previously buffered writes first. Tombstone deletes keys
// in the same transaction:
//
//	err := store.PutMany([]lmdbstore.Item{
//	    {Key: "a", Value: 1},
//	    {Key: "b", Value: 2},
//	    {Key: "stale", Value: lmdbstore.Tombstone},
//	})
//
// GetMany looks up many keys in a single read transaction and reports
// which of the original keys were absent, in input order:
//
//	found, missing, err := store.GetMany([]any{"a", "b", "c"},
//	    lmdbstore.DecodeKeys())
//
// # Map Growth
//
// When a flush hits a full memory map, the store grows the map to the
// larger of double its size or 64MiB more, then retries the whole
// transaction. WithMaxMapSize caps the growth; once the cap is reached
// further growth fails with ErrMapFull and the failed transaction is
// rolled back in full.
//
// # Tables (Namespacing)
//
// Tables scope a shared store with a key prefix:
//
//	users := lmdbstore.NewTable(store, []byte("users:"))
//	users.Put("alice", profile) // stored as "users:alice"
//
// # Concurrency
//
// A Store may be shared freely between goroutines. Reads of the
// database run outside the store's lock, so they never block each
// other or buffer mutation. Close waits for in-flight reads to finish
// before releasing the environment and is safe to call more than once.
package lmdbstore
