package core

import "context"

// AgentID identifies a registered agent by its registration order. IDs are
// assigned by the engine starting at 0 and never change for the lifetime of a
// run. The ID is the sole tie-break when several agents contribute facts in
// the same cycle: effects merge in ascending AgentID order.
type AgentID int

// Agent is the unit of work scheduled by the engine. Agents are stateless:
// every decision must derive from the View passed in, never from fields
// mutated across cycles. The engine may call an agent any number of times,
// on any goroutine.
//
// Implementations must:
//   - Report dependencies honestly; an agent is only scheduled when one of
//     its dependency keys changed in the previous cycle (or when it declares
//     no dependencies at all).
//   - Keep Accepts pure: same View, same answer, no side effects.
//   - Treat the View as read-only and return all output through the Effect.
//   - Respect ctx cancellation; the engine enforces a hard per-agent timeout.
type Agent interface {
	// Name returns the agent's stable, human-readable identifier. Names are
	// recorded in fact provenance and must be unique within an engine.
	Name() string

	// Dependencies lists the context keys this agent reads. An empty slice
	// means the agent is a candidate every cycle.
	Dependencies() []ContextKey

	// Accepts reports whether the agent wants to run against the given view.
	// It is evaluated fresh each cycle against the current state; the engine
	// never caches the answer.
	Accepts(view *View) bool

	// Execute runs the agent against a read-only view and returns the facts
	// and proposals it wants committed. Returning an error (or panicking)
	// discards the entire effect; no partial output is ever merged.
	Execute(ctx context.Context, view *View) (Effect, error)
}

// Effect is the complete output of one agent execution. The engine commits an
// effect atomically during the serial merge phase: either every fact in it is
// applied or, on structural failure, the run halts with the effects merged so
// far intact.
type Effect struct {
	// Facts are committed directly to the context, subject to structural
	// invariants and conflict detection.
	Facts []Fact

	// Proposals travel through the proposal pipeline before promotion. A
	// rejected proposal never halts the run.
	Proposals []ProposedFact
}

// Empty reports whether the effect carries no output at all.
func (e Effect) Empty() bool {
	return len(e.Facts) == 0 && len(e.Proposals) == 0
}

// AgentInfo is the registration record the engine keeps per agent.
type AgentInfo struct {
	ID           AgentID      `json:"id"`
	Name         string       `json:"name"`
	Dependencies []ContextKey `json:"dependencies,omitempty"`
}
