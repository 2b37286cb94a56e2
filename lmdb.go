package lmdbstore

import (
	"os"

	"github.com/PowerDNS/lmdb-go/lmdb"
)

// environment wraps the LMDB environment and the root database handle.
// It is owned exclusively by a Store and never exposed to callers.
type environment struct {
	path string
	env  *lmdb.Env
	dbi  lmdb.DBI
}

// openEnvironment creates and opens an LMDB environment at path,
// applying the engine-level options.
func openEnvironment(path string, o *options) (*environment, error) {
	if !o.noSubdir {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, wrapEngine("mkdir", err)
		}
	}

	env, err := lmdb.NewEnv()
	if err != nil {
		return nil, wrapEngine("create", err)
	}
	if o.mapSize > 0 {
		if err := env.SetMapSize(o.mapSize); err != nil {
			env.Close()
			return nil, wrapEngine("set map size", err)
		}
	}
	if o.maxReaders > 0 {
		if err := env.SetMaxReaders(o.maxReaders); err != nil {
			env.Close()
			return nil, wrapEngine("set max readers", err)
		}
	}

	// NoTLS is required because goroutines migrate between OS threads,
	// and LMDB reader slots are per-thread otherwise.
	flags := uint(lmdb.NoTLS)
	if o.noSubdir {
		flags |= lmdb.NoSubdir
	}
	if o.readonly {
		flags |= lmdb.Readonly
	}
	if o.noSync {
		flags |= lmdb.NoSync
	}

	if err := env.Open(path, flags, 0o644); err != nil {
		env.Close()
		return nil, wrapEngine("open", err)
	}

	e := &environment{path: path, env: env}

	openRoot := func(txn *lmdb.Txn) (err error) {
		e.dbi, err = txn.OpenRoot(0)
		return err
	}
	if o.readonly {
		err = env.View(openRoot)
	} else {
		err = env.Update(openRoot)
	}
	if err != nil {
		env.Close()
		return nil, wrapEngine("open root", err)
	}

	return e, nil
}

// update runs fn inside a single write transaction, committing on nil
// and aborting on error.
func (e *environment) update(fn lmdb.TxnOp) error {
	return e.env.Update(fn)
}

// view runs fn inside a read-only transaction.
func (e *environment) view(fn lmdb.TxnOp) error {
	return e.env.View(fn)
}

func (e *environment) info() (*lmdb.EnvInfo, error) {
	return e.env.Info()
}

func (e *environment) stat() (*lmdb.Stat, error) {
	return e.env.Stat()
}

func (e *environment) setMapSize(n int64) error {
	return e.env.SetMapSize(n)
}

func (e *environment) sync() error {
	return e.env.Sync(true)
}

func (e *environment) close() error {
	return e.env.Close()
}
