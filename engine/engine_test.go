package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/internal/testutil"
	"github.com/hupe1980/factmesh/invariant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRegister(t *testing.T, e *Engine, agents ...core.Agent) {
	t.Helper()
	for _, a := range agents {
		_, err := e.Register(a)
		require.NoError(t, err)
	}
}

// Registry tests

func TestRegister_AssignsSequentialIDs(t *testing.T) {
	e := New()

	for i, name := range []string{"alpha", "beta", "gamma"} {
		id, err := e.Register(&testutil.FakeAgent{AgentName: name})
		require.NoError(t, err)
		assert.Equal(t, core.AgentID(i), id)
	}

	infos := e.Agents()
	require.Len(t, infos, 3)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "gamma", infos[2].Name)
}

func TestRegister_RejectsDuplicateName(t *testing.T) {
	e := New()
	mustRegister(t, e, &testutil.FakeAgent{AgentName: "twin"})

	_, err := e.Register(&testutil.FakeAgent{AgentName: "twin"})
	var dupErr *DuplicateAgentError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "twin", dupErr.Name)
}

func TestRegister_RejectsEmptyName(t *testing.T) {
	e := New()
	_, err := e.Register(&testutil.FakeAgent{})
	assert.Error(t, err)
}

func TestRegister_RejectsUnknownDependencyKey(t *testing.T) {
	e := New()
	_, err := e.Register(&testutil.FakeAgent{
		AgentName: "confused",
		Deps:      []core.ContextKey{"moods"},
	})
	assert.ErrorIs(t, err, core.ErrUnknownKey)
}

func TestRegister_FailsWhileRunActive(t *testing.T) {
	e := New()
	gate := make(chan struct{})
	blocker := &testutil.FakeAgent{
		AgentName: "blocker",
		ExecuteFn: func(ctx context.Context, _ *core.View) (core.Effect, error) {
			select {
			case <-gate:
			case <-ctx.Done():
			}
			return core.Effect{}, nil
		},
	}
	mustRegister(t, e, blocker)

	_, events, errs, err := e.RunAsync(context.Background(), nil, core.Budget{})
	require.NoError(t, err)

	// The first event means the run is registered as active.
	<-events

	_, err = e.Register(&testutil.FakeAgent{AgentName: "latecomer"})
	assert.ErrorIs(t, err, ErrRunActive)

	close(gate)
	for range events {
	}
	assert.NoError(t, <-errs)
}

func TestRun_NoAgents(t *testing.T) {
	e := New()
	_, err := e.Run(context.Background(), nil, core.Budget{})
	assert.ErrorIs(t, err, ErrNoAgents)

	_, _, _, err = e.RunAsync(context.Background(), nil, core.Budget{})
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestStopRun_UnknownRun(t *testing.T) {
	e := New()
	err := e.StopRun("no-such-run")
	assert.ErrorIs(t, err, ErrUnknownRun)
}

// Convergence scenarios

func TestRun_TwoCycleConvergence(t *testing.T) {
	e := New()
	seeder := testutil.Emitter("signal-source", nil, core.NewFact(core.KeySignals, "sig-1", "load rising"))
	mustRegister(t, e, seeder)

	res, err := e.Run(context.Background(), nil, core.Budget{})
	require.NoError(t, err)

	assert.True(t, res.Converged())
	assert.Equal(t, core.HaltConverged, res.Halt.Kind)
	assert.Equal(t, 2, res.CyclesExecuted)
	assert.Equal(t, 1, seeder.Executions())
	assert.Equal(t, []string{"load rising"}, testutil.Contents(res.Context, core.KeySignals))
	assert.Equal(t, 1, res.Contributions["signal-source"])
	assert.NotEmpty(t, res.RunID)

	// The engine stamps provenance at merge time.
	fact := res.Context.Get(core.KeySignals)[0]
	assert.Equal(t, "signal-source", fact.Provenance.Agent)
	assert.Equal(t, core.AgentID(0), fact.Provenance.AgentID)
	assert.Equal(t, 1, fact.Provenance.Cycle)
}

func TestRun_ConflictHaltsAndKeepsEarlierFacts(t *testing.T) {
	e := New()
	mustRegister(t, e,
		testutil.Emitter("optimist", nil, core.NewFact(core.KeyHypotheses, "h-1", "demand doubles")),
		testutil.Emitter("pessimist", nil, core.NewFact(core.KeyHypotheses, "h-1", "demand halves")),
	)

	res, err := e.Run(context.Background(), nil, core.Budget{})
	require.NoError(t, err)

	assert.False(t, res.Converged())
	assert.Equal(t, core.HaltInvariantViolation, res.Halt.Kind)
	require.NotNil(t, res.Halt.Violation)
	assert.Equal(t, "fact_conflict", res.Halt.Violation.Invariant)
	assert.Equal(t, core.ClassStructural, res.Halt.Violation.Class)
	assert.Equal(t, 1, res.CyclesExecuted)

	// Registration order breaks the tie: the optimist committed first and its
	// fact survives the halt.
	assert.Equal(t, []string{"demand doubles"}, testutil.Contents(res.Context, core.KeyHypotheses))
}

func TestRun_IdenticalDuplicateIsIdempotent(t *testing.T) {
	e := New()
	shared := core.NewFact(core.KeyHypotheses, "h-1", "demand doubles")
	mustRegister(t, e,
		testutil.Emitter("first", nil, shared),
		testutil.Emitter("second", nil, shared),
	)

	res, err := e.Run(context.Background(), nil, core.Budget{})
	require.NoError(t, err)

	assert.True(t, res.Converged())
	assert.Equal(t, []string{"demand doubles"}, testutil.Contents(res.Context, core.KeyHypotheses))
	// Only the first committer gets contribution credit.
	assert.Equal(t, 1, res.Contributions["first"])
	assert.Equal(t, 0, res.Contributions["second"])
}

func TestRun_CycleBudgetExhausted(t *testing.T) {
	e := New()
	n := 0
	restless := &testutil.FakeAgent{
		AgentName: "restless",
		ExecuteFn: func(_ context.Context, _ *core.View) (core.Effect, error) {
			n++
			return core.Effect{Facts: []core.Fact{
				core.NewFact(core.KeySignals, fmt.Sprintf("sig-%d", n), "tick"),
			}}, nil
		},
	}
	mustRegister(t, e, restless)

	res, err := e.Run(context.Background(), nil, core.Budget{MaxCycles: 1})
	require.NoError(t, err)

	assert.Equal(t, core.HaltBudgetExhausted, res.Halt.Kind)
	assert.Equal(t, core.DimensionCycles, res.Halt.Dimension)
	assert.Equal(t, 1, res.CyclesExecuted)
	assert.Equal(t, 1, restless.Executions())
	assert.Len(t, res.Context.Get(core.KeySignals), 1)
}

func TestRun_FactBudgetExhausted(t *testing.T) {
	e := New()
	seeder := testutil.Emitter("bulk", nil,
		core.NewFact(core.KeySignals, "sig-1", "one"),
		core.NewFact(core.KeySignals, "sig-2", "two"),
		core.NewFact(core.KeySignals, "sig-3", "three"),
	)
	mustRegister(t, e, seeder)

	res, err := e.Run(context.Background(), nil, core.Budget{MaxFacts: 2})
	require.NoError(t, err)

	assert.Equal(t, core.HaltBudgetExhausted, res.Halt.Kind)
	assert.Equal(t, core.DimensionFacts, res.Halt.Dimension)
	assert.Equal(t, 1, res.CyclesExecuted)
}

func TestRun_TimeBudgetExhausted(t *testing.T) {
	e := New()
	n := 0
	restless := &testutil.FakeAgent{
		AgentName: "restless",
		ExecuteFn: func(_ context.Context, _ *core.View) (core.Effect, error) {
			n++
			time.Sleep(5 * time.Millisecond)
			return core.Effect{Facts: []core.Fact{
				core.NewFact(core.KeySignals, fmt.Sprintf("sig-%d", n), "tick"),
			}}, nil
		},
	}
	mustRegister(t, e, restless)

	res, err := e.Run(context.Background(), nil, core.Budget{MaxTime: time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, core.HaltBudgetExhausted, res.Halt.Kind)
	assert.Equal(t, core.DimensionTime, res.Halt.Dimension)
	assert.Equal(t, 1, res.CyclesExecuted)
}

func TestRun_ConvergenceBeatsBudgetOnFinalCycle(t *testing.T) {
	e := New()
	seeder := testutil.Emitter("seeder", nil, core.NewFact(core.KeySignals, "sig-1", "tick"))
	mustRegister(t, e, seeder)

	// Cycle 2 is both the quiescing cycle and the budget's last: the
	// convergence check wins.
	res, err := e.Run(context.Background(), nil, core.Budget{MaxCycles: 2})
	require.NoError(t, err)

	assert.True(t, res.Converged())
	assert.Equal(t, 2, res.CyclesExecuted)
}

// Acceptance gate scenarios

func TestRun_AcceptanceViolationDowngradesHalt(t *testing.T) {
	e := New(func(o *Options) {
		o.Invariants = []core.Invariant{
			invariant.MinDistinctFacts(core.KeyStrategies, 2, core.ClassAcceptance),
		}
	})
	mustRegister(t, e, testutil.Emitter("planner", nil, core.NewFact(core.KeyStrategies, "s-1", "scale up")))

	res, err := e.Run(context.Background(), nil, core.Budget{})
	require.NoError(t, err)

	assert.False(t, res.Converged())
	assert.Equal(t, core.HaltInvariantViolation, res.Halt.Kind)
	require.NotNil(t, res.Halt.Violation)
	assert.Equal(t, core.ClassAcceptance, res.Halt.Violation.Class)
	assert.Contains(t, res.Halt.Violation.Detail, "need at least 2")
	// The context keeps its facts: the run is inspectable after the halt.
	assert.Equal(t, []string{"scale up"}, testutil.Contents(res.Context, core.KeyStrategies))
}

func TestRun_AcceptanceWithAuthorityAwaits(t *testing.T) {
	e := New(func(o *Options) {
		o.Invariants = []core.Invariant{
			invariant.MinDistinctFacts(core.KeyStrategies, 2, core.ClassAcceptance).RequireAuthority(),
		}
	})
	mustRegister(t, e, testutil.Emitter("planner", nil, core.NewFact(core.KeyStrategies, "s-1", "scale up")))

	res, err := e.Run(context.Background(), nil, core.Budget{})
	require.NoError(t, err)

	assert.Equal(t, core.HaltAwaitingAuthority, res.Halt.Kind)
	assert.NotEmpty(t, res.Halt.Authority)
}

func TestRun_AcceptanceSatisfiedConverges(t *testing.T) {
	e := New(func(o *Options) {
		o.Invariants = []core.Invariant{
			invariant.MinDistinctFacts(core.KeyStrategies, 2, core.ClassAcceptance),
		}
	})
	mustRegister(t, e, testutil.Emitter("planner", nil,
		core.NewFact(core.KeyStrategies, "s-1", "scale up"),
		core.NewFact(core.KeyStrategies, "s-2", "shed load"),
	))

	res, err := e.Run(context.Background(), nil, core.Budget{})
	require.NoError(t, err)
	assert.True(t, res.Converged())
}

// Dependency-driven scheduling

func TestRun_DirtyKeysDriveEligibility(t *testing.T) {
	e := New()
	seeder := testutil.Emitter("seeder", nil, core.NewFact(core.KeySignals, "sig-1", "load rising"))
	analyst := &testutil.FakeAgent{
		AgentName: "analyst",
		Deps:      []core.ContextKey{core.KeySignals},
		AcceptFn: func(view *core.View) bool {
			return view.Has(core.KeySignals) && !view.Has(core.KeyHypotheses)
		},
		ExecuteFn: func(_ context.Context, _ *core.View) (core.Effect, error) {
			return core.Effect{Facts: []core.Fact{
				core.NewFact(core.KeyHypotheses, "h-1", "overload imminent"),
			}}, nil
		},
	}
	mustRegister(t, e, seeder, analyst)

	res, err := e.Run(context.Background(), nil, core.Budget{})
	require.NoError(t, err)

	assert.True(t, res.Converged())
	assert.Equal(t, 3, res.CyclesExecuted)
	// The analyst declined the bootstrap cycle and woke exactly once on the
	// signals change.
	assert.Equal(t, 1, seeder.Executions())
	assert.Equal(t, 1, analyst.Executions())
	assert.Equal(t, []string{"overload imminent"}, testutil.Contents(res.Context, core.KeyHypotheses))
	assert.Equal(t, 2, res.Context.Get(core.KeyHypotheses)[0].Provenance.Cycle)
}

func TestRun_SeededContextCountsAgainstFactBudget(t *testing.T) {
	e := New()
	n := 0
	restless := &testutil.FakeAgent{
		AgentName: "restless",
		ExecuteFn: func(_ context.Context, _ *core.View) (core.Effect, error) {
			n++
			return core.Effect{Facts: []core.Fact{
				core.NewFact(core.KeySignals, fmt.Sprintf("sig-%d", n), "tick"),
			}}, nil
		},
	}
	mustRegister(t, e, restless)

	seeds := testutil.SeededContext(t,
		core.NewFact(core.KeySeeds, "goal", "keep latency low"),
		core.NewFact(core.KeySeeds, "region", "eu-west"),
	)

	res, err := e.Run(context.Background(), seeds, core.Budget{MaxFacts: 3})
	require.NoError(t, err)

	// Two seeds plus one contribution hits the cap after the first cycle.
	assert.Equal(t, core.HaltBudgetExhausted, res.Halt.Kind)
	assert.Equal(t, core.DimensionFacts, res.Halt.Dimension)
	assert.Equal(t, 1, res.CyclesExecuted)
}

func TestRun_ErrorsAreMachineryOnly(t *testing.T) {
	e := New()
	mustRegister(t, e, testutil.Emitter("optimist", nil, core.NewFact(core.KeyHypotheses, "h-1", "a")))
	mustRegister(t, e, testutil.Emitter("pessimist", nil, core.NewFact(core.KeyHypotheses, "h-1", "b")))

	// Even a conflict halt is a result, not an error.
	res, err := e.Run(context.Background(), nil, core.Budget{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEqual(t, core.HaltConverged, res.Halt.Kind)
}

func TestConvergeError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &ConvergeError{RunID: "r-1", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "r-1")
}
