// Package journal contains concrete implementations of the core.Recorder.
//
// A journal is the durable audit trail of an engine: which runs were opened
// under which budget, every fact in global commit order, and how each run
// halted. Unlike a snapshot, which captures the final state for a resume, the
// journal preserves the path to that state, which is what post-hoc debugging
// and determinism audits need.
//
// The canonical Recorder interface lives in the core package; callers should
// depend on it rather than on the concrete types here.
package journal
