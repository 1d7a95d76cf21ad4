// Package runner implements the operational layer above the engine.
//
// The Runner owns an engine together with its persistence: a snapshot store
// for halted runs and an optional journal for the commit audit trail. It
// applies one configured default budget to every run, persists the outcome
// of each halt, and turns a stored run id plus an authority fact back into a
// live run.
//
// # Responsibilities (abridged)
//   - Agent registration pass-through to the owned engine
//   - Run execution under the configured default budget
//   - Snapshot persistence on every halt
//   - Resumption by run id with an injected authority fact
//   - Run cancellation and resource shutdown
//
// Construction from a config file is provided by FromConfig, which wires the
// logging, snapshot and journal backends the configuration names.
package runner
