package journal

import (
	"fmt"
	"time"

	"github.com/hupe1980/factmesh/core"
)

var (
	// ErrNotFound is returned when no run record exists for the given run id.
	ErrNotFound = fmt.Errorf("run not found")
)

// RunRecord is one journaled run: its budget, when it was opened and, once
// halted, the halt reason and cycle count. Halt is nil while the run is
// still active.
type RunRecord struct {
	RunID          string           `json:"run_id"`
	Budget         core.Budget      `json:"budget"`
	OpenedAt       time.Time        `json:"opened_at"`
	Halt           *core.HaltReason `json:"halt,omitempty"`
	CyclesExecuted int              `json:"cycles_executed"`
}

// FactRecord is one journaled commit. Seq is the global commit sequence
// across all runs; within a run it reproduces the exact commit order.
type FactRecord struct {
	Seq        int64     `json:"seq"`
	RunID      string    `json:"run_id"`
	Cycle      int       `json:"cycle"`
	Fact       core.Fact `json:"fact"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NoopRecorder satisfies core.Recorder and records nothing. Use it where an
// API demands a recorder but no audit trail is wanted.
type NoopRecorder struct{}

// OpenRun implements core.Recorder.
func (NoopRecorder) OpenRun(string, core.Budget) error { return nil }

// RecordFact implements core.Recorder.
func (NoopRecorder) RecordFact(string, int, core.Fact) error { return nil }

// RecordHalt implements core.Recorder.
func (NoopRecorder) RecordHalt(string, core.HaltReason, int) error { return nil }
