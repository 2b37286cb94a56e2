package lmdbstore

import (
	"fmt"
	"slices"
	"sync"

	"github.com/PowerDNS/lmdb-go/lmdb"
	"golang.org/x/text/encoding"
	"golang.org/x/text/unicode/norm"
)

// Store lifecycle states. The transition Open -> Closing -> Closed is
// irreversible.
const (
	stateOpen = iota
	stateClosing
	stateClosed
)

// Store is a thread-safe, write-buffered object store backed by an LMDB
// environment. Put and Delete are staged in an in-memory buffer and
// flushed in batches; reads consult the buffer first, so every goroutine
// observes its own writes immediately.
type Store struct {
	env   *environment
	codec Codec
	log   Logger

	batchSize     int
	autoflushRead bool
	readonly      bool
	maxMapSize    int64

	keyEncoding encoding.Encoding
	keyErrors   KeyErrorPolicy
	normalize   bool
	normForm    norm.Form

	mu      sync.Mutex
	cond    *sync.Cond
	state   int
	readers int
	buf     writeBuffer
}

// Open opens (creating if necessary) the store at path.
func Open(path string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.batchSize < 1 {
		return nil, fmt.Errorf("lmdbstore: batch size must be positive, got %d", o.batchSize)
	}

	keyEncoding := o.keyEncoding
	if o.keyEncodingName != "" {
		enc, err := resolveKeyEncoding(o.keyEncodingName)
		if err != nil {
			return nil, err
		}
		keyEncoding = enc
	}

	env, err := openEnvironment(path, o)
	if err != nil {
		return nil, err
	}

	s := &Store{
		env:           env,
		codec:         o.codec,
		log:           o.logger,
		batchSize:     o.batchSize,
		autoflushRead: o.autoflushRead,
		readonly:      o.readonly,
		maxMapSize:    o.maxMapSize,
		keyEncoding:   keyEncoding,
		keyErrors:     o.keyErrors,
		normalize:     o.normalize,
		normForm:      o.normForm,
		buf:           newWriteBuffer(),
	}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

// Path returns the path the store was opened with.
func (s *Store) Path() string { return s.env.path }

func (s *Store) ensureOpenLocked() error {
	if s.state != stateOpen {
		return ErrStoreClosed
	}
	return nil
}

func (s *Store) ensureWritableLocked() error {
	if s.readonly {
		return ErrReadOnly
	}
	return nil
}

// beginReadLocked registers the caller as an active engine reader. The
// caller must hold the lock, release it for the duration of the engine
// read and call endRead afterwards.
func (s *Store) beginReadLocked() { s.readers++ }

func (s *Store) endRead() {
	s.mu.Lock()
	s.readers--
	if s.readers == 0 && s.state == stateClosing {
		s.cond.Broadcast()
	}
	s.mu.Unlock()
}

func (s *Store) encode(key, value any) ([]byte, error) {
	raw, err := s.codec.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: key %s: %v", ErrSerialize, formatKey(key), err)
	}
	return raw, nil
}

// Source tags for deserialization failures.
const (
	sourceBuffered  = "buffered"
	sourcePersisted = "persisted"
)

func (s *Store) decodeInto(raw []byte, out any, key any, source string) error {
	if err := s.codec.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s key %s: %v", ErrCorruptRecord, source, formatKey(key), err)
	}
	return nil
}

// Put stores a value under key. The write is staged in the buffer and
// becomes durable on the next flush; it is immediately visible to reads
// through this store.
func (s *Store) Put(key, value any) error {
	nk, err := s.normKey(key)
	if err != nil {
		return err
	}
	raw, err := s.encode(key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if err := s.ensureWritableLocked(); err != nil {
		return err
	}
	s.buf.stagePut(nk, raw)
	if s.buf.len() >= s.batchSize {
		return s.flushLocked()
	}
	return nil
}

// Delete marks key for deletion. Deleting an absent key is not an
// error; the tombstone is applied on the next flush.
func (s *Store) Delete(key any) error {
	nk, err := s.normKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if err := s.ensureWritableLocked(); err != nil {
		return err
	}
	s.buf.stageDelete(nk)
	if s.buf.len() >= s.batchSize {
		return s.flushLocked()
	}
	return nil
}

// Get retrieves the value stored under key, reporting whether it was
// found. Buffered writes take precedence over persisted state.
func (s *Store) Get(key any) (any, bool, error) {
	var v any
	found, err := s.GetInto(key, &v)
	if err != nil || !found {
		return nil, false, err
	}
	return v, true, nil
}

// GetInto retrieves the value stored under key and decodes it into out,
// which must be a non-nil pointer. It reports whether the key was found;
// out is left untouched for absent keys.
func (s *Store) GetInto(key any, out any) (bool, error) {
	nk, err := s.normKey(key)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if err := s.ensureOpenLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	if e, ok := s.buf.lookup(nk); ok {
		if e.tombstone {
			s.mu.Unlock()
			return false, nil
		}
		raw := e.value
		s.mu.Unlock()
		if err := s.decodeInto(raw, out, key, sourceBuffered); err != nil {
			return false, err
		}
		return true, nil
	}
	if s.autoflushRead {
		if err := s.flushLocked(); err != nil {
			s.mu.Unlock()
			return false, err
		}
	}
	s.beginReadLocked()
	s.mu.Unlock()
	defer s.endRead()

	var raw []byte
	found := false
	err = s.env.view(func(txn *lmdb.Txn) error {
		txn.RawRead = true
		v, err := txn.Get(s.env.dbi, nk)
		if lmdb.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		raw = slices.Clone(v)
		found = true
		return nil
	})
	if err != nil {
		return false, wrapEngine("get", err)
	}
	if !found {
		return false, nil
	}
	if err := s.decodeInto(raw, out, key, sourcePersisted); err != nil {
		return false, err
	}
	return true, nil
}

// Fetch retrieves the value stored under key, failing with
// ErrKeyNotFound when the key is absent.
func (s *Store) Fetch(key any) (any, error) {
	v, found, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, formatKey(key))
	}
	return v, nil
}

// FlushMode selects the per-call flush behavior of Exists.
type FlushMode int

const (
	// FlushDefault follows the store-wide autoflush-on-read policy.
	FlushDefault FlushMode = iota

	// FlushAlways flushes the buffer before checking the database.
	FlushAlways

	// FlushNever checks the database without flushing.
	FlushNever
)

// Exists reports whether key is present, consulting the buffer first.
// A buffered tombstone reports false. The mode overrides the store-wide
// autoflush-on-read policy for this call only.
func (s *Store) Exists(key any, mode FlushMode) (bool, error) {
	nk, err := s.normKey(key)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if err := s.ensureOpenLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	if e, ok := s.buf.lookup(nk); ok {
		s.mu.Unlock()
		return !e.tombstone, nil
	}
	doFlush := s.autoflushRead
	switch mode {
	case FlushAlways:
		doFlush = true
	case FlushNever:
		doFlush = false
	}
	if doFlush {
		if err := s.flushLocked(); err != nil {
			s.mu.Unlock()
			return false, err
		}
	}
	s.beginReadLocked()
	s.mu.Unlock()
	defer s.endRead()

	found := false
	err = s.env.view(func(txn *lmdb.Txn) error {
		txn.RawRead = true
		_, err := txn.Get(s.env.dbi, nk)
		if lmdb.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, wrapEngine("exists", err)
	}
	return found, nil
}

// Has is the containment-check shorthand. It never flushes the buffer,
// so a simple membership test has no side effects.
func (s *Store) Has(key any) (bool, error) {
	return s.Exists(key, FlushNever)
}

// Flush commits all buffered operations to the database in a single
// transaction.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if err := s.ensureWritableLocked(); err != nil {
		return err
	}
	return s.flushLocked()
}

// flushLocked writes the whole buffer in one transaction, growing the
// map and retrying the entire transaction on a full map. The buffer is
// cleared only after the transaction commits, so a failed flush loses
// nothing.
func (s *Store) flushLocked() error {
	if s.buf.empty() {
		return nil
	}

	for {
		err := s.env.update(func(txn *lmdb.Txn) error {
			for k, e := range s.buf.entries {
				if e.tombstone {
					if err := txn.Del(s.env.dbi, []byte(k), nil); err != nil && !lmdb.IsNotFound(err) {
						return err
					}
					continue
				}
				if err := txn.Put(s.env.dbi, []byte(k), e.value, 0); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			break
		}
		if !lmdb.IsMapFull(err) {
			return wrapEngine("flush", err)
		}
		if err := s.growLocked(); err != nil {
			return err
		}
	}

	s.buf.reset()
	return nil
}

// Sync forces a synchronous flush of the environment's buffers to disk.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	return wrapEngine("sync", s.env.sync())
}

// MapSize returns the environment's current map size in bytes.
func (s *Store) MapSize() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return 0, err
	}
	info, err := s.env.info()
	if err != nil {
		return 0, wrapEngine("info", err)
	}
	return info.MapSize, nil
}

// Len returns the number of entries committed to the database. Buffered
// operations are not counted until they flush.
func (s *Store) Len() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return 0, err
	}
	stat, err := s.env.stat()
	if err != nil {
		return 0, wrapEngine("stat", err)
	}
	return stat.Entries, nil
}

// Close flushes pending writes, waits for in-flight reads to finish and
// releases the environment. It is idempotent and safe to call from
// multiple goroutines; a failed final flush is logged but not returned.
func (s *Store) Close() error {
	return s.close(false)
}

// CloseStrict is Close, except a failed final flush is returned after
// teardown completes.
func (s *Store) CloseStrict() error {
	return s.close(true)
}

func (s *Store) close(strict bool) error {
	s.mu.Lock()
	if s.state != stateOpen {
		// Another goroutine is tearing down; wait until it finishes.
		for s.state == stateClosing {
			s.cond.Wait()
		}
		s.mu.Unlock()
		return nil
	}
	s.state = stateClosing

	var flushErr error
	if !s.readonly {
		if err := s.flushLocked(); err != nil {
			s.log.Error("final flush failed during close", "error", err)
			flushErr = err
		}
	}

	for s.readers > 0 {
		s.cond.Wait()
	}

	if !s.readonly {
		if err := s.env.sync(); err != nil {
			s.log.Warn("sync failed during close", "error", err)
		}
	}
	closeErr := s.env.close()
	s.state = stateClosed
	s.cond.Broadcast()
	s.mu.Unlock()

	if strict && flushErr != nil {
		return fmt.Errorf("lmdbstore: final flush failed during close: %w", flushErr)
	}
	return wrapEngine("close", closeErr)
}
