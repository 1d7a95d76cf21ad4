package core

// Recorder receives the audit trail of a run: one open record, every
// committed fact in commit order, and one halt record. The engine invokes it
// synchronously from the merge phase, so implementations should keep writes
// cheap or buffer internally.
//
// Recording failures are logged and otherwise ignored; the audit trail never
// decides the outcome of a run.
type Recorder interface {
	OpenRun(runID string, budget Budget) error
	RecordFact(runID string, cycle int, fact Fact) error
	RecordHalt(runID string, halt HaltReason, cyclesExecuted int) error
}
