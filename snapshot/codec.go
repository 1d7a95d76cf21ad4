package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/factmesh/core"
)

// Encode serializes a snapshot to its canonical JSON form. All store
// implementations in this package and its subpackages persist this encoding.
func Encode(snap *core.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if err := ValidateRunID(snap.RunID); err != nil {
		return nil, err
	}
	if snap.Context == nil {
		return nil, fmt.Errorf("snapshot %s has no context", snap.RunID)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snap.RunID, err)
	}
	return data, nil
}

// Decode deserializes a snapshot from its canonical JSON form. The fact
// index inside the context is rebuilt during unmarshaling, so the returned
// snapshot is immediately usable for a resume.
func Decode(data []byte) (*core.Snapshot, error) {
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// ValidateRunID rejects run ids that are empty or could escape a key or
// path namespace. Engine-issued run ids always pass.
func ValidateRunID(runID string) error {
	if runID == "" {
		return fmt.Errorf("empty run id")
	}
	if strings.ContainsAny(runID, "/\\") || runID == "." || runID == ".." {
		return fmt.Errorf("invalid run id %q", runID)
	}
	return nil
}
