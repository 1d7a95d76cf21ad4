package core

import "time"

// ConvergeResult is the outcome of a completed run. Whatever the halt
// reason, the context carries every fact committed before the halt; partial
// progress is never rolled back.
type ConvergeResult struct {
	// RunID identifies the run across snapshots, journals and resumes.
	RunID string `json:"run_id"`

	// Context is the final fact state.
	Context *Context `json:"context"`

	// Halt says why the run ended.
	Halt HaltReason `json:"halt"`

	// CyclesExecuted counts full cycles, including the final one that
	// detected convergence or tripped a limit.
	CyclesExecuted int `json:"cycles_executed"`

	// Contributions maps agent name to the number of facts it committed,
	// promoted proposals included.
	Contributions map[string]int `json:"contributions,omitempty"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Converged reports whether the run ended in the successful terminal state.
func (r *ConvergeResult) Converged() bool {
	return r.Halt.Kind == HaltConverged
}
