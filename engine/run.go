package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/internal/util"
)

// runState bundles everything mutable about one run. It lives on the run's
// goroutine; only the worker pool sees other goroutines, and those receive
// immutable views.
type runState struct {
	runID         string
	fctx          *core.Context
	tracker       *core.Tracker
	contributions map[string]int
	emitFn        func(Event)
}

// emit forwards an event to the streaming consumer, if any.
func (rs *runState) emit(ev Event) {
	if rs.emitFn != nil {
		rs.emitFn(ev)
	}
}

// addFact commits through the context and reports whether the fact actually
// entered (false for idempotent re-adds).
func (rs *runState) addFact(f core.Fact) (bool, error) {
	before := rs.fctx.Version()
	if err := rs.fctx.AddFact(f); err != nil {
		return false, err
	}
	return rs.fctx.Version() > before, nil
}

// Run executes the registered agents against the initial context until the
// run halts, and blocks until it does.
//
// The initial context carries the seeds; nil means an empty context. The
// engine owns the context for the duration of the run and returns it inside
// the result.
//
// The returned error is reserved for machinery failures — no registered
// agents, context cancellation. Every domain outcome, including conflicts
// and exhausted budgets, arrives as the result's HaltReason: callers branch
// on result.Halt.Kind, not on err.
func (e *Engine) Run(ctx context.Context, initial *core.Context, budget core.Budget) (*core.ConvergeResult, error) {
	return e.execute(ctx, util.NewID(), initial, budget, true, nil, nil)
}

// RunAsync starts a run on its own goroutine and returns channels for
// real-time observation.
//
// Events stream in commit order; the events channel closes when the run
// ends. A machinery failure arrives on the error channel after the events
// channel closes. The terminal EventHalted event carries the halt reason,
// so streaming consumers need no separate result lookup.
//
// The run can be cancelled through ctx or StopRun(runID).
func (e *Engine) RunAsync(ctx context.Context, initial *core.Context, budget core.Budget) (string, <-chan Event, <-chan error, error) {
	e.mu.RLock()
	agentCount := len(e.agents)
	e.mu.RUnlock()
	if agentCount == 0 {
		return "", nil, nil, ErrNoAgents
	}

	runID := util.NewID()
	events := make(chan Event, e.config.EventBufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(events)

		emit := func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		if _, err := e.execute(ctx, runID, initial, budget, true, nil, emit); err != nil {
			errs <- err
		}
	}()

	return runID, events, errs, nil
}

// Resume continues a snapshotted run with one injected authority fact.
//
// A resume is a fresh run over the restored context: the agent set may even
// differ from the original run's. The authority fact commits before the
// first cycle and its key forms the entire initial dirty set, so exactly the
// agents interested in the decision wake up — there is no all-agents
// bootstrap on resume.
//
// The fact is stamped with authority provenance unless the caller set an
// agent on it. Injecting a fact that conflicts with committed state is
// caller misuse and fails with a ConvergeError before any cycle runs.
func (e *Engine) Resume(ctx context.Context, snap *core.Snapshot, authority core.Fact, budget core.Budget) (*core.ConvergeResult, error) {
	if snap == nil || snap.Context == nil {
		return nil, fmt.Errorf("resume requires a snapshot with a context")
	}

	runID := snap.RunID
	if runID == "" {
		runID = util.NewID()
	}
	if authority.Provenance.Agent == "" {
		authority.Provenance.Agent = core.ProvenanceAuthority
	}

	return e.execute(ctx, runID, snap.Context, budget, false, &authority, nil)
}

// execute is the shared run machinery behind Run, RunAsync and Resume.
func (e *Engine) execute(
	ctx context.Context,
	runID string,
	initial *core.Context,
	budget core.Budget,
	bootstrap bool,
	inject *core.Fact,
	emit func(Event),
) (*core.ConvergeResult, error) {
	e.mu.RLock()
	agentCount := len(e.agents)
	e.mu.RUnlock()
	if agentCount == 0 {
		return nil, ErrNoAgents
	}

	fctx := initial
	if fctx == nil {
		fctx = core.NewContext()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.runsMu.Lock()
	e.activeRuns[runID] = cancel
	e.runsMu.Unlock()
	defer func() {
		e.runsMu.Lock()
		delete(e.activeRuns, runID)
		e.runsMu.Unlock()
	}()

	start := time.Now()
	rs := &runState{
		runID:         runID,
		fctx:          fctx,
		tracker:       core.NewTracker(budget),
		contributions: make(map[string]int),
		emitFn:        emit,
	}
	// Seeds count against the fact budget from the start.
	rs.tracker.AddFacts(fctx.Len())

	if e.recorder != nil {
		if err := e.recorder.OpenRun(runID, budget); err != nil {
			e.logger.Warn("engine.journal.open_failed", "run_id", runID, "error", err.Error())
		}
	}

	if inject != nil {
		committed, err := rs.addFact(*inject)
		if err != nil {
			return nil, &ConvergeError{RunID: runID, Err: fmt.Errorf("inject authority fact: %w", err)}
		}
		if committed {
			rs.tracker.AddFacts(1)
			e.recordFact(runID, 0, *inject)
		}
	}

	e.logger.Info("engine.run.started", "run_id", runID, "agents", agentCount, "initial_facts", fctx.Len(), "bootstrap", bootstrap)

	halt, cycles, err := e.runLoop(runCtx, rs, bootstrap)
	elapsed := time.Since(start)
	if err != nil {
		e.logger.Error("engine.run.aborted", "run_id", runID, "cycles", cycles, "error", err.Error())
		return nil, &ConvergeError{RunID: runID, Err: err}
	}

	if e.recorder != nil {
		if rerr := e.recorder.RecordHalt(runID, halt, cycles); rerr != nil {
			e.logger.Warn("engine.journal.halt_failed", "run_id", runID, "error", rerr.Error())
		}
	}
	e.observe(runCtx, CallbackOnHalt, &CallbackContext{RunID: runID, Cycle: cycles, Halt: &halt})
	e.logger.Info("engine.run.halted", "run_id", runID, "reason", halt.String(), "cycles", cycles, "facts", fctx.Len(), "elapsed", elapsed)

	return &core.ConvergeResult{
		RunID:          runID,
		Context:        fctx,
		Halt:           halt,
		CyclesExecuted: cycles,
		Contributions:  rs.contributions,
		Elapsed:        elapsed,
	}, nil
}

// runLoop drives cycles until a terminal state. It returns the halt reason
// and the number of cycles executed, or an error on cancellation.
func (e *Engine) runLoop(ctx context.Context, rs *runState, bootstrap bool) (core.HaltReason, int, error) {
	semantic := e.registry.ByClass(core.ClassSemantic)

	for cycle := 1; ; cycle++ {
		if err := ctx.Err(); err != nil {
			return core.HaltReason{}, cycle - 1, err
		}

		// The view is taken before the dirty set resets: this cycle's
		// eligibility reads the previous cycle's changes.
		view := rs.fctx.Snapshot()
		rs.fctx.ClearDirty()

		ids := e.eligibleAgents(view, bootstrap && cycle == 1)
		rs.emit(cycleStartEvent(rs.runID, cycle, len(ids)))
		e.observe(ctx, CallbackBeforeCycle, &CallbackContext{RunID: rs.runID, Cycle: cycle})
		e.logger.Debug("engine.cycle.start", "run_id", rs.runID, "cycle", cycle, "eligible", len(ids), "dirty_keys", len(view.DirtyKeys()))

		outcomes := e.executeAgents(ctx, ids, view)

		// Cancellation wins over any conclusion this cycle could reach:
		// contained abort errors must not read as quiescence.
		if err := ctx.Err(); err != nil {
			return core.HaltReason{}, cycle - 1, err
		}

		stats := e.mergeOutcomes(ctx, rs, cycle, outcomes)
		if stats.halt != nil {
			rs.emit(haltedEvent(rs.runID, cycle, *stats.halt))
			return *stats.halt, cycle, nil
		}

		e.observe(ctx, CallbackAfterMerge, &CallbackContext{RunID: rs.runID, Cycle: cycle, Committed: stats.facts})

		// Semantic gate: after every merge pass, empty cycles included. A
		// violation blocks convergence for this cycle but the run goes on.
		standing := false
		if len(semantic) > 0 {
			postView := rs.fctx.Snapshot()
			for _, inv := range semantic {
				v := inv.Check(postView)
				if v == nil {
					continue
				}
				standing = true
				rs.emit(violationEvent(rs.runID, cycle, v))
				e.observe(ctx, CallbackOnViolation, &CallbackContext{RunID: rs.runID, Cycle: cycle, Violation: v})
				e.logger.Warn("engine.invariant.semantic", "run_id", rs.runID, "cycle", cycle, "invariant", v.Invariant, "detail", v.Detail)
				detail := fmt.Sprintf("semantic invariant %s violated in cycle %d: %s", v.Invariant, cycle, v.Detail)
				e.commitDiagnostic(rs, cycle, &stats, detail, "violation", v.Invariant, strconv.Itoa(cycle))
			}
		}

		// Convergence precedes the budget gate: a run that quiesces on its
		// budget's last cycle converges.
		if len(rs.fctx.DirtyKeys()) == 0 && !standing {
			halt := e.acceptanceGate(ctx, rs, cycle)
			rs.emit(haltedEvent(rs.runID, cycle, halt))
			return halt, cycle, nil
		}

		rs.tracker.AddCycle()
		rs.tracker.AddFacts(stats.committed)
		if dim, exhausted := rs.tracker.Exhausted(); exhausted {
			halt := core.BudgetExhausted(dim)
			rs.emit(haltedEvent(rs.runID, cycle, halt))
			e.logger.Info("engine.budget.exhausted", "run_id", rs.runID, "cycle", cycle, "dimension", string(dim))
			return halt, cycle, nil
		}

		e.logger.Debug("engine.cycle.end", "run_id", rs.runID, "cycle", cycle, "committed", stats.committed, "rejected", stats.rejected)
	}
}

// acceptanceGate runs the acceptance invariants on a quiesced state. The
// first violation, in registration order, downgrades the halt: to
// AwaitingAuthority when the check demands an external decision, otherwise
// to InvariantViolation.
func (e *Engine) acceptanceGate(ctx context.Context, rs *runState, cycle int) core.HaltReason {
	acceptance := e.registry.ByClass(core.ClassAcceptance)
	if len(acceptance) == 0 {
		return core.Converged()
	}

	view := rs.fctx.Snapshot()
	for _, inv := range acceptance {
		v := inv.Check(view)
		if v == nil {
			continue
		}
		rs.emit(violationEvent(rs.runID, cycle, v))
		e.observe(ctx, CallbackOnViolation, &CallbackContext{RunID: rs.runID, Cycle: cycle, Violation: v})
		e.logger.Warn("engine.invariant.acceptance", "run_id", rs.runID, "cycle", cycle, "invariant", v.Invariant, "authority", v.Authority)
		if v.Authority {
			return core.AwaitingAuthority(v.Detail)
		}
		return core.InvariantViolated(v)
	}
	return core.Converged()
}

// observe routes a lifecycle observation to the callback manager. Callback
// errors are logged and never influence the run.
func (e *Engine) observe(ctx context.Context, t CallbackType, cc *CallbackContext) {
	if e.callbacks == nil {
		return
	}
	if err := e.callbacks.Execute(ctx, t, cc); err != nil {
		e.logger.Warn("engine.callback.error", "type", string(t), "error", err.Error())
	}
}
