package lmdbstore

// bufferEntry is one staged operation: either a serialized value or a
// tombstone marking the key for deletion. The explicit tag keeps
// tombstones distinguishable from any possible value.
type bufferEntry struct {
	value     []byte
	tombstone bool
}

// writeBuffer is the in-memory overlay of uncommitted operations,
// keyed by normalized key with last-write-wins semantics. It is only
// ever accessed under the store's mutation lock.
type writeBuffer struct {
	entries map[string]bufferEntry
}

func newWriteBuffer() writeBuffer {
	return writeBuffer{entries: make(map[string]bufferEntry)}
}

func (b *writeBuffer) stagePut(key, value []byte) {
	b.entries[string(key)] = bufferEntry{value: value}
}

func (b *writeBuffer) stageDelete(key []byte) {
	b.entries[string(key)] = bufferEntry{tombstone: true}
}

func (b *writeBuffer) lookup(key []byte) (bufferEntry, bool) {
	e, ok := b.entries[string(key)]
	return e, ok
}

func (b *writeBuffer) len() int { return len(b.entries) }

func (b *writeBuffer) empty() bool { return len(b.entries) == 0 }

func (b *writeBuffer) reset() { clear(b.entries) }
