// Package core provides the foundational domain types and interfaces used by
// FactMesh. It defines the core abstractions for:
//
//   - Context keys (the closed set of fact channels)
//   - Facts and proposed facts (immutable, provenanced contributions)
//   - The Context (shared append-only fact store with version + dirty keys)
//   - Agents (stateless contributors scheduled by the engine)
//   - Invariants (structural / semantic / acceptance checks)
//   - Budgets, halt reasons and converge results
//   - Pluggable stores for run snapshots and fact journaling
//
// The package intentionally keeps implementation concerns (scheduling, the
// merge loop, persistence backends, concrete agents) out of scope, exposing
// small interfaces so the engine and backends stay swappable. All exported
// identifiers include concise documentation to aid discoverability and
// external consumption.
package core
