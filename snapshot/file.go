package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/factmesh/core"
)

const fileExt = ".json"

// FileStore persists snapshots as one JSON file per run inside a directory.
// It is the simplest durable SnapshotStore: human-readable, greppable, and
// trivially backed up. Writes go through a temp file plus rename so a crash
// mid-save never leaves a truncated snapshot behind.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates the directory if needed and returns a store rooted
// there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty snapshot directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save stores (or overwrites) the snapshot under <dir>/<runID>.json.
func (s *FileStore) Save(snap *core.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(snap.RunID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.RunID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize snapshot %s: %w", snap.RunID, err)
	}
	return nil
}

// Load reads and decodes the snapshot for the run id or returns ErrNotFound.
func (s *FileStore) Load(runID string) (*core.Snapshot, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path(runID))
	s.mu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", runID, err)
	}
	return Decode(data)
}

// List returns the run ids present in the directory in lexical order.
func (s *FileStore) List() ([]string, error) {
	s.mu.Lock()
	entries, err := os.ReadDir(s.dir)
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the snapshot file if present or returns ErrNotFound.
func (s *FileStore) Delete(runID string) error {
	if err := ValidateRunID(runID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(runID)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete snapshot %s: %w", runID, err)
	}
	return nil
}

func (s *FileStore) path(runID string) string {
	return filepath.Join(s.dir, runID+fileExt)
}
