package lmdbstore

import "slices"

// Table is a view over a Store that prefixes every key with a
// pre-configured byte string, giving namespaced access to a shared
// store. Keys are normalized before the prefix is applied, so byte and
// text keys address the same entries as they do on the Store itself.
type Table struct {
	s      *Store
	prefix []byte
}

// NewTable returns a view of s in which all keys carry the given prefix.
func NewTable(s *Store, prefix []byte) *Table {
	return &Table{s: s, prefix: slices.Clone(prefix)}
}

// Prefix returns the table's key prefix.
func (t *Table) Prefix() []byte {
	return slices.Clone(t.prefix)
}

func (t *Table) key(key any) (any, error) {
	nk, err := t.s.normKey(key)
	if err != nil {
		return nil, err
	}
	pk := make([]byte, 0, len(t.prefix)+len(nk))
	pk = append(pk, t.prefix...)
	return append(pk, nk...), nil
}

// Put stores a value under the prefixed key.
func (t *Table) Put(key, value any) error {
	pk, err := t.key(key)
	if err != nil {
		return err
	}
	return t.s.Put(pk, value)
}

// Get retrieves the value stored under the prefixed key.
func (t *Table) Get(key any) (any, bool, error) {
	pk, err := t.key(key)
	if err != nil {
		return nil, false, err
	}
	return t.s.Get(pk)
}

// GetInto decodes the value stored under the prefixed key into out.
func (t *Table) GetInto(key any, out any) (bool, error) {
	pk, err := t.key(key)
	if err != nil {
		return false, err
	}
	return t.s.GetInto(pk, out)
}

// Fetch retrieves the value stored under the prefixed key, failing with
// ErrKeyNotFound when absent.
func (t *Table) Fetch(key any) (any, error) {
	pk, err := t.key(key)
	if err != nil {
		return nil, err
	}
	return t.s.Fetch(pk)
}

// Delete marks the prefixed key for deletion.
func (t *Table) Delete(key any) error {
	pk, err := t.key(key)
	if err != nil {
		return err
	}
	return t.s.Delete(pk)
}

// Has reports whether the prefixed key is present, without flushing.
func (t *Table) Has(key any) (bool, error) {
	pk, err := t.key(key)
	if err != nil {
		return false, err
	}
	return t.s.Has(pk)
}

// Exists reports whether the prefixed key is present.
func (t *Table) Exists(key any, mode FlushMode) (bool, error) {
	pk, err := t.key(key)
	if err != nil {
		return false, err
	}
	return t.s.Exists(pk, mode)
}

// PutMany stores all items under prefixed keys in one atomic
// transaction on the underlying store.
func (t *Table) PutMany(items []Item) error {
	prefixed := make([]Item, len(items))
	for i, it := range items {
		pk, err := t.key(it.Key)
		if err != nil {
			return err
		}
		prefixed[i] = Item{Key: pk, Value: it.Value}
	}
	return t.s.PutMany(prefixed)
}

// Flush commits the underlying store's buffered operations.
func (t *Table) Flush() error {
	return t.s.Flush()
}
