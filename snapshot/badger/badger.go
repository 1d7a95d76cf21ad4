// Package badger provides a core.SnapshotStore backed by an embedded
// BadgerDB, the durable choice for single-process deployments that must
// survive restarts without an external database.
package badger

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/snapshot"
)

const keyPrefix = "snapshot/"

// Options configures a Store instance.
type Options struct {
	// InMemory opens the database without disk persistence. Path is ignored.
	// Useful for tests.
	InMemory bool
	// SyncWrites flushes each save to disk before returning. Defaults to
	// true: a crash right after Save must not lose the snapshot.
	SyncWrites bool
}

// Store persists snapshots in BadgerDB under a "snapshot/" key prefix, so
// the database can be shared with other stores. Badger's own logging is
// disabled; all observability goes through the engine's logger.
type Store struct {
	db *badger.DB
}

// NewStore opens (or creates) a BadgerDB at path and returns a store backed
// by it. The caller owns the store and must Close it when done.
func NewStore(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{
		SyncWrites: true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if path == "" {
			return nil, fmt.Errorf("path is required for a persistent store")
		}
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", path, err)
		}
		badgerOpts = badger.DefaultOptions(path)
	}
	badgerOpts = badgerOpts.WithSyncWrites(opts.SyncWrites).WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreFromDB wraps an already opened database, e.g. one shared with
// other components. Closing the database is then the caller's concern.
func NewStoreFromDB(db *badger.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores (or overwrites) the snapshot under its run id.
func (s *Store) Save(snap *core.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(snap.RunID), data)
	})
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.RunID, err)
	}
	return nil
}

// Load reads and decodes the snapshot for the run id or returns
// snapshot.ErrNotFound.
func (s *Store) Load(runID string) (*core.Snapshot, error) {
	if err := snapshot.ValidateRunID(runID); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(runID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, snapshot.ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", runID, err)
	}
	return snapshot.Decode(data)
}

// List returns the stored run ids. Badger iterates in key order, so the ids
// come out sorted.
func (s *Store) List() ([]string, error) {
	prefix := []byte(keyPrefix)
	ids := []string{}

	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false

		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			k := it.Item().Key()
			ids = append(ids, string(k[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return ids, nil
}

// Delete removes the snapshot if present or returns snapshot.ErrNotFound.
func (s *Store) Delete(runID string) error {
	if err := snapshot.ValidateRunID(runID); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(runID)); err != nil {
			return err
		}
		return txn.Delete(key(runID))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return snapshot.ErrNotFound
		}
		return fmt.Errorf("delete snapshot %s: %w", runID, err)
	}
	return nil
}

func key(runID string) []byte {
	return []byte(keyPrefix + runID)
}
