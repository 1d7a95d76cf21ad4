package engine

import (
	"time"

	"github.com/hupe1980/factmesh/core"
)

// EventType discriminates the engine's streaming events.
type EventType string

const (
	// EventCycleStart opens a cycle and carries the eligible agent count.
	EventCycleStart EventType = "cycle_start"

	// EventAgentDone reports one finished agent execution, successful or
	// contained.
	EventAgentDone EventType = "agent_done"

	// EventFactCommitted reports a fact accepted into the context.
	EventFactCommitted EventType = "fact_committed"

	// EventProposalRejected reports a proposal the pipeline turned away.
	EventProposalRejected EventType = "proposal_rejected"

	// EventViolation reports a failed invariant check of any class.
	EventViolation EventType = "violation"

	// EventHalted closes the stream with the run's halt reason.
	EventHalted EventType = "halted"
)

// Event is one observation from a running engine, streamed by RunAsync.
// Exactly the fields relevant to its type are populated. Events are
// observational: consuming or dropping them never changes run behavior.
type Event struct {
	Type      EventType        `json:"type"`
	RunID     string           `json:"run_id"`
	Cycle     int              `json:"cycle"`
	Agent     string           `json:"agent,omitempty"`
	Eligible  int              `json:"eligible,omitempty"`
	Fact      *core.Fact       `json:"fact,omitempty"`
	Violation *core.Violation  `json:"violation,omitempty"`
	Halt      *core.HaltReason `json:"halt,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func newEvent(t EventType, runID string, cycle int) Event {
	return Event{Type: t, RunID: runID, Cycle: cycle, Timestamp: time.Now()}
}

func cycleStartEvent(runID string, cycle, eligible int) Event {
	ev := newEvent(EventCycleStart, runID, cycle)
	ev.Eligible = eligible
	return ev
}

func agentDoneEvent(runID string, cycle int, agent string, detail string) Event {
	ev := newEvent(EventAgentDone, runID, cycle)
	ev.Agent = agent
	ev.Detail = detail
	return ev
}

func factCommittedEvent(runID string, cycle int, f core.Fact) Event {
	ev := newEvent(EventFactCommitted, runID, cycle)
	ev.Agent = f.Provenance.Agent
	ev.Fact = &f
	return ev
}

func proposalRejectedEvent(runID string, cycle int, agent, detail string) Event {
	ev := newEvent(EventProposalRejected, runID, cycle)
	ev.Agent = agent
	ev.Detail = detail
	return ev
}

func violationEvent(runID string, cycle int, v *core.Violation) Event {
	ev := newEvent(EventViolation, runID, cycle)
	ev.Violation = v
	return ev
}

func haltedEvent(runID string, cycle int, halt core.HaltReason) Event {
	ev := newEvent(EventHalted, runID, cycle)
	ev.Halt = &halt
	return ev
}
