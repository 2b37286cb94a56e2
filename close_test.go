package lmdbstore_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sxwebdev/lmdbstore"
	"github.com/vmihailenco/msgpack/v5"
)

func TestClose_FlushesBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	store, err := lmdbstore.Open(path, lmdbstore.WithKeyEncodingName("utf-8"))
	require.NoError(t, err)
	require.NoError(t, store.Put("k", "v"))
	require.NoError(t, store.Close())

	reopened, err := lmdbstore.Open(path, lmdbstore.WithKeyEncodingName("utf-8"))
	require.NoError(t, err)
	defer reopened.Close()

	v, found, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)
}

func TestClose_Idempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
	require.NoError(t, store.CloseStrict())
}

func TestClose_OperationsAfterCloseFail(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	_, _, err := store.Get("k")
	require.ErrorIs(t, err, lmdbstore.ErrStoreClosed)

	require.ErrorIs(t, store.Put("k", "v"), lmdbstore.ErrStoreClosed)
	require.ErrorIs(t, store.Delete("k"), lmdbstore.ErrStoreClosed)
	require.ErrorIs(t, store.Flush(), lmdbstore.ErrStoreClosed)
	require.ErrorIs(t, store.Sync(), lmdbstore.ErrStoreClosed)

	_, err = store.Has("k")
	require.ErrorIs(t, err, lmdbstore.ErrStoreClosed)

	_, _, err = store.GetMany([]any{"k"})
	require.ErrorIs(t, err, lmdbstore.ErrStoreClosed)

	err = store.PutMany([]lmdbstore.Item{{Key: "k", Value: "v"}})
	require.ErrorIs(t, err, lmdbstore.ErrStoreClosed)

	_, err = store.Len()
	require.ErrorIs(t, err, lmdbstore.ErrStoreClosed)
}

func TestCloseStrict_ReportsFlushFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	store, err := lmdbstore.Open(path,
		lmdbstore.WithKeyEncodingName("utf-8"),
		lmdbstore.WithMapSize(512*kib),
		lmdbstore.WithMaxMapSize(512*kib))
	require.NoError(t, err)

	// This write cannot flush: the map is already at its ceiling.
	require.NoError(t, store.Put("big", bytes.Repeat([]byte{'x'}, 1*mib)))

	err = store.CloseStrict()
	require.ErrorIs(t, err, lmdbstore.ErrMapFull)

	// Teardown completed despite the failure.
	require.ErrorIs(t, store.Put("k", "v"), lmdbstore.ErrStoreClosed)
}

func TestClose_LenientSwallowsFlushFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	store, err := lmdbstore.Open(path,
		lmdbstore.WithKeyEncodingName("utf-8"),
		lmdbstore.WithMapSize(512*kib),
		lmdbstore.WithMaxMapSize(512*kib))
	require.NoError(t, err)

	require.NoError(t, store.Put("big", bytes.Repeat([]byte{'x'}, 1*mib)))

	require.NoError(t, store.Close())
	require.ErrorIs(t, store.Put("k", "v"), lmdbstore.ErrStoreClosed)
}

// slowCodec delays decoding so a read transaction stays in flight long
// enough for Close to have to wait for it.
type slowCodec struct {
	delay time.Duration
}

func (c slowCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (c slowCodec) Unmarshal(data []byte, v any) error {
	time.Sleep(c.delay)
	return msgpack.Unmarshal(data, v)
}

func TestClose_WaitsForActiveReaders(t *testing.T) {
	store := newTestStore(t, lmdbstore.WithCodec(slowCodec{delay: 300 * time.Millisecond}))

	require.NoError(t, store.Put("k", "v"))
	require.NoError(t, store.Flush())

	type result struct {
		v     any
		found bool
		err   error
	}
	readDone := make(chan result, 1)
	go func() {
		v, found, err := store.Get("k")
		readDone <- result{v, found, err}
	}()

	// Give the reader time to register and enter the engine read.
	time.Sleep(100 * time.Millisecond)

	closeDone := make(chan struct{})
	go func() {
		_ = store.Close()
		close(closeDone)
	}()

	// The reader is still decoding; close must not have finished.
	time.Sleep(100 * time.Millisecond)
	select {
	case <-closeDone:
		t.Fatal("close returned while a read was in flight")
	default:
	}

	r := <-readDone
	require.NoError(t, r.err)
	assert.True(t, r.found)
	assert.Equal(t, "v", r.v)

	select {
	case <-closeDone:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not finish after the read completed")
	}
}
