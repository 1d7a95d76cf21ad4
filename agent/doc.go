// Package agent contains first-class agent implementations and supporting
// utilities for contributing facts to a FactMesh run. The package focuses on
// four concerns:
//
//  1. Identity + dependency plumbing (BaseAgent)
//  2. Closure-backed agents for programmatic contributors (FuncAgent)
//  3. Model-centric drafting agent proposing facts from completions (ModelAgent)
//  4. Grouping of contributors into one atomic turn (SequentialAgent, ParallelAgent)
//
// Design principles:
//   - Statelessness - agents carry configuration, never run state; everything
//     an execution needs arrives in the immutable view
//   - Idempotency - contributors derive stable fact ids so re-emission across
//     cycles is a no-op rather than a conflict
//   - Extensibility - embed BaseAgent; only implement Execute plus any custom
//     Accepts predicate
//
// Execution model:
//   - An agent's Execute receives a *core.View frozen at cycle start
//   - The returned Effect is atomic: it merges fully or, on error, not at all
//   - The engine stamps provenance; agents never fill it in
//
// The package intentionally keeps model specifics and persistence in their
// respective packages to avoid cyclic deps.
package agent
