// Package engine implements the deterministic fixed-point execution loop.
//
// The Engine cycles a set of registered agents against a shared fact
// context until no agent produces new information, a budget runs out, or an
// invariant fails. It bridges the gap between the passive data model in core
// and a running system, providing a correctness-first foundation where the
// same seeds and the same agents always produce the same fact state.
//
// # Core Responsibilities
//
// Agent Management:
//   - Registration-ordered agent registry with stable integer IDs
//   - Dependency index from context keys to interested agents
//   - Closed agent set per run; registration is rejected mid-run
//
// Cycle Orchestration:
//   - Eligibility from the previous cycle's dirty keys plus a fresh
//     Accepts call per candidate
//   - Parallel execution against one immutable view via a bounded pool
//   - Strictly serialized merge in ascending agent ID order
//   - Convergence, budget and invariant gates between cycles
//
// Containment:
//   - Per-agent hard timeout and panic recovery
//   - Failed executions contribute nothing except a diagnostic fact
//   - No internal retries anywhere; callers branch on the halt reason
//
// # Determinism Model
//
// Two phases alternate and never overlap. During the compute phase all
// eligible agents run concurrently against the same immutable view taken at
// cycle start; completion order is explicitly irrelevant. During the commit
// phase the engine goroutine alone merges the collected effects in agent ID
// order, fact by fact. Every nondeterministic input to the final state is
// thereby removed: scheduling, goroutine interleaving and agent latency
// cannot change what gets committed or in which order.
//
// # Halt Taxonomy
//
// A run always ends in exactly one of four reasons:
//   - Converged: a full pass produced nothing new and acceptance checks hold
//   - AwaitingAuthority: an external decision is required to proceed
//   - InvariantViolation: a structural check failed terminally, or an
//     acceptance check rejected the quiesced state
//   - BudgetExhausted: cycles, facts or wall-clock time ran out
//
// Failures inside agents are never terminal; they are contained as
// diagnostic facts and the run continues without them.
//
// # Usage Patterns
//
// Basic setup:
//
//	eng := engine.New(
//	    engine.WithLogger(logger),
//	    engine.WithInvariants(invariant.MinDistinctFacts(core.KeyStrategies, 2, core.ClassAcceptance)),
//	)
//	eng.Register(collector)
//	eng.Register(reducer)
//
// Synchronous execution:
//
//	initial := core.NewContext()
//	_ = initial.Seed(core.NewFact(core.KeySeeds, "goal", "stabilize p99 latency"))
//
//	result, err := eng.Run(ctx, initial, core.Budget{MaxCycles: 16})
//	if err != nil {
//	    return err // caller misuse or cancellation, never a domain outcome
//	}
//	switch result.Halt.Kind {
//	case core.HaltConverged:
//	    // consume result.Context
//	case core.HaltAwaitingAuthority:
//	    // persist a snapshot, obtain a decision, resume
//	}
//
// Streaming execution:
//
//	runID, events, errs, err := eng.RunAsync(ctx, initial, budget)
//	if err != nil {
//	    return err
//	}
//	_ = runID // use for StopRun
//	for event := range events {
//	    handleEvent(event)
//	}
//
// # Concurrency Model
//
// The engine goroutine is the sole mutator of the run's context. Agent
// goroutines receive defensive-copy views and communicate results over
// channels. Cycle N+1 starts only after cycle N has fully merged; there is
// no cross-cycle concurrency and no speculative execution.
package engine
