package core

import "time"

// Snapshot is the portable record of a halted run: the full fact state plus
// the halt metadata a caller needs to decide whether and how to resume.
// Snapshots serialize to JSON; the dirty set is deliberately absent because
// resumes reseed it from the injected authority fact.
type Snapshot struct {
	RunID          string     `json:"run_id"`
	Context        *Context   `json:"context"`
	Halt           HaltReason `json:"halt"`
	CyclesExecuted int        `json:"cycles_executed"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SnapshotStore defines the interface for snapshot persistence, keyed by run
// ID. Implementations should be thread-safe. Short method names
// (Save/Load/List/Delete) mirror other store interfaces for consistency.
type SnapshotStore interface {
	Save(snap *Snapshot) error
	Load(runID string) (*Snapshot, error)
	List() ([]string, error)
	Delete(runID string) error
}
