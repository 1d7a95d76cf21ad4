package snapshot

import "fmt"

var (
	// ErrNotFound is returned when no snapshot exists for the given run id in
	// the underlying store.
	ErrNotFound = fmt.Errorf("snapshot not found")
)
