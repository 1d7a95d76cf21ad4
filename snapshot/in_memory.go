package snapshot

import (
	"sort"
	"sync"

	"github.com/hupe1980/factmesh/core"
)

// InMemoryStore is a trivial in-process SnapshotStore implementation useful
// for tests, examples and single-process prototypes. It keeps the encoded
// snapshots in a map guarded by an RWMutex. Snapshots pass through the JSON
// codec on save and load, so stored state is isolated from later mutation of
// the caller's context.
//
// This implementation is intentionally minimal; it does not enforce retention
// limits or eviction. For anything that must survive a process restart,
// prefer a durable implementation (files, BadgerDB, object stores).
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte // runID -> encoded snapshot
}

// NewInMemoryStore returns an empty in-memory snapshot store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[string][]byte)}
}

// Save stores (or overwrites) the snapshot under its run id.
func (s *InMemoryStore) Save(snap *core.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.RunID] = data
	return nil
}

// Load returns a decoded copy of the stored snapshot or ErrNotFound.
func (s *InMemoryStore) Load(runID string) (*core.Snapshot, error) {
	s.mu.RLock()
	data, ok := s.snapshots[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return Decode(data)
}

// List returns the stored run ids in lexical order. The slice is a snapshot
// and safe for caller mutation.
func (s *InMemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the snapshot if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[runID]; !ok {
		return ErrNotFound
	}
	delete(s.snapshots, runID)
	return nil
}
