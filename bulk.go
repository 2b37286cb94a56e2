package lmdbstore

import (
	"errors"
	"fmt"
	"slices"

	"github.com/PowerDNS/lmdb-go/lmdb"
)

// Item is one entry of a bulk write. Assign Tombstone as the Value to
// delete the key instead of storing a value.
type Item struct {
	Key   any
	Value any
}

type tombstone struct{}

// Tombstone marks an Item for deletion in PutMany.
var Tombstone tombstone

// GetManyOption adjusts how GetMany reports its results.
type GetManyOption func(*getManyOptions)

type getManyOptions struct {
	decodeKeys     bool
	decodeNotFound *bool
}

// DecodeKeys decodes the keys of found entries back to text using the
// configured key encoding. Not-found keys are decoded as well unless
// overridden with DecodeNotFound.
func DecodeKeys() GetManyOption {
	return func(o *getManyOptions) {
		o.decodeKeys = true
	}
}

// DecodeNotFound controls decoding of the not-found key list
// independently of DecodeKeys.
func DecodeNotFound(decode bool) GetManyOption {
	return func(o *getManyOptions) {
		o.decodeNotFound = &decode
	}
}

// GetMany retrieves multiple keys at once. Found values are returned
// keyed by normalized key; the second result lists the original keys
// that were not found, preserving input order and duplicates. Buffered
// entries take precedence over persisted ones, and all database lookups
// share a single read transaction.
func (s *Store) GetMany(keys []any, opts ...GetManyOption) (map[string]any, []any, error) {
	var o getManyOptions
	for _, opt := range opts {
		opt(&o)
	}
	decodeNotFound := o.decodeKeys
	if o.decodeNotFound != nil {
		decodeNotFound = *o.decodeNotFound
	}
	if (o.decodeKeys || decodeNotFound) && s.keyEncoding == nil {
		return nil, nil, fmt.Errorf(
			"%w: key decoding requested without a key encoding", ErrUnsupportedKey)
	}

	normKeys := make([][]byte, len(keys))
	for i, k := range keys {
		nk, err := s.normKey(k)
		if err != nil {
			return nil, nil, err
		}
		normKeys[i] = nk
	}

	foundRaw := make(map[string][]byte)
	var toCheck [][]byte

	s.mu.Lock()
	if err := s.ensureOpenLocked(); err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	seen := make(map[string]struct{})
	for _, nk := range normKeys {
		ks := string(nk)
		if e, ok := s.buf.lookup(nk); ok {
			if !e.tombstone {
				if _, dup := foundRaw[ks]; !dup {
					foundRaw[ks] = e.value
				}
			}
			continue
		}
		if _, dup := seen[ks]; !dup {
			toCheck = append(toCheck, nk)
			seen[ks] = struct{}{}
		}
	}
	registered := false
	if len(toCheck) > 0 {
		if s.autoflushRead {
			if err := s.flushLocked(); err != nil {
				s.mu.Unlock()
				return nil, nil, err
			}
		}
		s.beginReadLocked()
		registered = true
	}
	s.mu.Unlock()
	if registered {
		defer s.endRead()
	}

	found := make(map[string]any, len(foundRaw))
	for ks, raw := range foundRaw {
		var v any
		if err := s.decodeInto(raw, &v, []byte(ks), sourceBuffered); err != nil {
			return nil, nil, err
		}
		found[ks] = v
	}

	if len(toCheck) > 0 {
		err := s.env.view(func(txn *lmdb.Txn) error {
			txn.RawRead = true
			for _, nk := range toCheck {
				ks := string(nk)
				if _, ok := found[ks]; ok {
					continue
				}
				raw, err := txn.Get(s.env.dbi, nk)
				if lmdb.IsNotFound(err) {
					continue
				}
				if err != nil {
					return err
				}
				var v any
				if err := s.decodeInto(raw, &v, nk, sourcePersisted); err != nil {
					return err
				}
				found[ks] = v
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrCorruptRecord) {
				return nil, nil, err
			}
			return nil, nil, wrapEngine("get_many", err)
		}
	}

	var notFound []any
	for i, k := range keys {
		if _, ok := found[string(normKeys[i])]; !ok {
			notFound = append(notFound, k)
		}
	}

	if o.decodeKeys {
		decoded := make(map[string]any, len(found))
		for ks, v := range found {
			dk, err := s.decodeKey([]byte(ks))
			if err != nil {
				return nil, nil, err
			}
			decoded[dk] = v
		}
		found = decoded
	}
	if decodeNotFound {
		for i, k := range notFound {
			if b, ok := k.([]byte); ok {
				dk, err := s.decodeKey(b)
				if err != nil {
					return nil, nil, err
				}
				notFound[i] = dk
			}
		}
	}

	return found, notFound, nil
}

// PutMany stores all items in a single atomic transaction, separate
// from routine buffer flushing. Any pre-existing buffered operations
// are flushed first, so earlier writes stay ordered before the bulk
// write. Duplicate keys follow last-write-wins.
//
// Items are normalized and serialized once up front, so the transaction
// can be retried whole after a map growth without re-reading the input.
func (s *Store) PutMany(items []Item) error {
	type staged struct {
		key   []byte
		entry bufferEntry
	}
	batch := make([]staged, 0, len(items))
	for _, it := range items {
		nk, err := s.normKey(it.Key)
		if err != nil {
			return err
		}
		if _, del := it.Value.(tombstone); del {
			batch = append(batch, staged{key: nk, entry: bufferEntry{tombstone: true}})
			continue
		}
		raw, err := s.encode(it.Key, it.Value)
		if err != nil {
			return err
		}
		batch = append(batch, staged{key: nk, entry: bufferEntry{value: raw}})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if err := s.ensureWritableLocked(); err != nil {
		return err
	}
	if err := s.flushLocked(); err != nil {
		return err
	}

	for {
		err := s.env.update(func(txn *lmdb.Txn) error {
			for _, it := range batch {
				if it.entry.tombstone {
					if err := txn.Del(s.env.dbi, it.key, nil); err != nil && !lmdb.IsNotFound(err) {
						return err
					}
					continue
				}
				if err := txn.Put(s.env.dbi, it.key, it.entry.value, 0); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !lmdb.IsMapFull(err) {
			return wrapEngine("put_many", err)
		}
		if err := s.growLocked(); err != nil {
			return err
		}
	}
}

// PutManyMap is PutMany over a map of string keys. Requires a key
// encoding, like any string-keyed operation.
func (s *Store) PutManyMap(items map[string]any) error {
	batch := make([]Item, 0, len(items))
	for k, v := range items {
		batch = append(batch, Item{Key: k, Value: v})
	}
	slices.SortFunc(batch, func(a, b Item) int {
		ka, kb := a.Key.(string), b.Key.(string)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	return s.PutMany(batch)
}
