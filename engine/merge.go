package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/internal/util"
	"github.com/hupe1980/factmesh/proposal"
)

// mergeStats aggregates one merge pass for the gates that follow it.
type mergeStats struct {
	committed int         // facts that actually entered the context
	rejected  int         // proposals the pipeline turned away
	facts     []core.Fact // committed facts in commit order
	halt      *core.HaltReason
}

// mergeOutcomes serializes a cycle's effects into the context.
//
// Outcomes arrive ordered by agent ID and are applied strictly in that
// order: first the effect's direct facts in emission order, then its
// proposals through the pipeline. The pass is atomic per agent effect in the
// structural sense — a structural violation stops the merge immediately,
// leaving everything committed before the offending fact in place, exactly
// as the append-only contract promises.
//
// Failed executions contribute a failure diagnostic instead of their effect.
// Rejected proposals contribute a rejection diagnostic; they can never halt
// the run.
func (e *Engine) mergeOutcomes(ctx context.Context, rs *runState, cycle int, outcomes []outcome) mergeStats {
	var stats mergeStats
	structural := e.registry.ByClass(core.ClassStructural)

	for _, out := range outcomes {
		e.observe(ctx, CallbackAfterAgent, &CallbackContext{RunID: rs.runID, Cycle: cycle, Agent: out.agent, Err: out.err})

		if out.err != nil {
			e.logger.Warn("engine.agent.contained", "run_id", rs.runID, "cycle", cycle, "agent", out.agent, "error", out.err.Error())
			rs.emit(agentDoneEvent(rs.runID, cycle, out.agent, "contained: "+out.err.Error()))
			detail := fmt.Sprintf("agent %s failed in cycle %d: %v", out.agent, cycle, out.err)
			e.commitDiagnostic(rs, cycle, &stats, detail, "failure", out.agent, strconv.Itoa(cycle))
			continue
		}

		rs.emit(agentDoneEvent(rs.runID, cycle, out.agent,
			fmt.Sprintf("%d fact(s), %d proposal(s) in %s", len(out.effect.Facts), len(out.effect.Proposals), out.elapsed)))

		if halted := e.mergeFacts(rs, cycle, out, structural, &stats); halted {
			return stats
		}
		if halted := e.mergeProposals(rs, cycle, out, structural, &stats); halted {
			return stats
		}
	}

	return stats
}

// mergeFacts commits an effect's direct facts. Returns true when the merge
// must stop because a structural violation halted the run.
func (e *Engine) mergeFacts(rs *runState, cycle int, out outcome, structural []core.Invariant, stats *mergeStats) bool {
	for _, f := range out.effect.Facts {
		// The engine is the authority on provenance: whatever the agent
		// filled in is replaced by the authenticated execution identity.
		f.Provenance = core.Provenance{Agent: out.agent, AgentID: out.id, Cycle: cycle}

		committed, err := rs.addFact(f)
		if err != nil {
			v := structuralViolation(err)
			rs.emit(violationEvent(rs.runID, cycle, v))
			e.haltMerge(rs, cycle, v, stats)
			return true
		}
		if !committed {
			continue // idempotent re-emission
		}

		rs.contributions[out.agent]++
		e.bookkeepCommit(rs, cycle, f, stats)

		if v := checkStructural(structural, rs.fctx); v != nil {
			rs.emit(violationEvent(rs.runID, cycle, v))
			e.haltMerge(rs, cycle, v, stats)
			return true
		}
	}
	return false
}

// mergeProposals routes an effect's proposals through the pipeline and
// commits the promoted ones. Rejections are recorded, never fatal; only a
// registered structural invariant can halt from here.
func (e *Engine) mergeProposals(rs *runState, cycle int, out outcome, structural []core.Invariant, stats *mergeStats) bool {
	if len(out.effect.Proposals) == 0 {
		return false
	}

	// The vetting view includes everything committed earlier in this merge
	// pass and refreshes after each promotion, so duplicates inside one
	// effect resolve deterministically.
	view := rs.fctx.Snapshot()

	for _, prop := range out.effect.Proposals {
		if err := e.pipeline.Process(view, prop); err != nil {
			if errors.Is(err, proposal.ErrDuplicate) {
				continue
			}
			stats.rejected++
			rs.emit(proposalRejectedEvent(rs.runID, cycle, out.agent, err.Error()))
			detail := fmt.Sprintf("proposal by %s rejected in cycle %d: %v", out.agent, cycle, err)
			e.commitDiagnostic(rs, cycle, stats, detail, "rejection", out.agent, strconv.Itoa(cycle), prop.ID)
			continue
		}

		f := proposal.Promote(prop, core.Provenance{Agent: out.agent, AgentID: out.id, Cycle: cycle})
		committed, err := rs.addFact(f)
		if err != nil {
			// A promoted fact losing a race against this very pass is a
			// rejection, not a structural halt; the pipeline's verdict was
			// taken on the freshest view and direct facts keep precedence.
			stats.rejected++
			rs.emit(proposalRejectedEvent(rs.runID, cycle, out.agent, err.Error()))
			detail := fmt.Sprintf("promoted proposal by %s not committable in cycle %d: %v", out.agent, cycle, err)
			e.commitDiagnostic(rs, cycle, stats, detail, "rejection", out.agent, strconv.Itoa(cycle), prop.ID)
			continue
		}
		if !committed {
			continue
		}

		rs.contributions[out.agent]++
		e.bookkeepCommit(rs, cycle, f, stats)

		if v := checkStructural(structural, rs.fctx); v != nil {
			rs.emit(violationEvent(rs.runID, cycle, v))
			e.haltMerge(rs, cycle, v, stats)
			return true
		}

		view = rs.fctx.Snapshot()
	}
	return false
}

// bookkeepCommit records a committed fact everywhere it needs to appear:
// stats, events and the journal.
func (e *Engine) bookkeepCommit(rs *runState, cycle int, f core.Fact, stats *mergeStats) {
	stats.committed++
	stats.facts = append(stats.facts, f)
	rs.emit(factCommittedEvent(rs.runID, cycle, f))
	e.recordFact(rs.runID, cycle, f)
}

// commitDiagnostic appends an engine-authored diagnostic fact. Diagnostics
// never dirty their key and never fail the run; a commit error here is
// logged and swallowed.
func (e *Engine) commitDiagnostic(rs *runState, cycle int, stats *mergeStats, detail string, idParts ...string) {
	f := core.Fact{
		Key:        core.KeyDiagnostic,
		ID:         util.DeterministicID(idParts...),
		Content:    detail,
		Provenance: core.Provenance{Agent: core.ProvenanceEngine, Cycle: cycle},
	}
	committed, err := rs.addFact(f)
	if err != nil {
		e.logger.Warn("engine.diagnostic.dropped", "run_id", rs.runID, "cycle", cycle, "error", err.Error())
		return
	}
	if committed {
		stats.committed++
		stats.facts = append(stats.facts, f)
		e.recordFact(rs.runID, cycle, f)
	}
}

// haltMerge finalizes a structural halt.
func (e *Engine) haltMerge(rs *runState, cycle int, v *core.Violation, stats *mergeStats) {
	h := core.InvariantViolated(v)
	stats.halt = &h
	e.logger.Error("engine.merge.halted", "run_id", rs.runID, "cycle", cycle, "invariant", v.Invariant, "detail", v.Detail)
}

// recordFact forwards a commit to the journal, if one is attached.
func (e *Engine) recordFact(runID string, cycle int, f core.Fact) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordFact(runID, cycle, f); err != nil {
		e.logger.Warn("engine.journal.record_failed", "run_id", runID, "error", err.Error())
	}
}

// checkStructural sweeps the structural invariants over the current state.
// Called after every committed fact; cheap when no structural invariants are
// registered.
func checkStructural(structural []core.Invariant, fctx *core.Context) *core.Violation {
	if len(structural) == 0 {
		return nil
	}
	view := fctx.Snapshot()
	for _, inv := range structural {
		if v := inv.Check(view); v != nil {
			return v
		}
	}
	return nil
}

// structuralViolation lifts a commit error into a structural violation.
func structuralViolation(err error) *core.Violation {
	var conflict *core.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Violation()
	}
	return &core.Violation{Invariant: "fact_shape", Class: core.ClassStructural, Detail: err.Error()}
}
