package evaluation

import (
	"context"
	"fmt"

	"github.com/hupe1980/factmesh/core"
)

// DeterminismEvaluatorOptions configures a DeterminismEvaluator.
type DeterminismEvaluatorOptions struct {
	// Replays is the number of runs to execute and compare. Minimum 2.
	Replays int
	// Budget bounds each replay. Zero dimensions are unlimited.
	Budget core.Budget
}

// DeterminismEvaluator replays the same seed facts through freshly built
// engines and compares the committed facts of every replay against the
// first. A setup is deterministic when all replays halt the same way and
// commit identical facts in identical order.
type DeterminismEvaluator struct {
	factory Factory
	seeds   []core.Fact
	replays int
	budget  core.Budget
}

// NewDeterminismEvaluator creates an evaluator that runs the engines built
// by factory from the given seeds.
func NewDeterminismEvaluator(factory Factory, seeds []core.Fact, optFns ...func(o *DeterminismEvaluatorOptions)) *DeterminismEvaluator {
	opts := DeterminismEvaluatorOptions{
		Replays: 2,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Replays < 2 {
		opts.Replays = 2
	}

	return &DeterminismEvaluator{
		factory: factory,
		seeds:   append([]core.Fact(nil), seeds...),
		replays: opts.Replays,
		budget:  opts.Budget,
	}
}

// Evaluate executes the configured number of replays and diffs each against
// the first. It returns an error only when a replay cannot be executed;
// divergence between replays is reported through the result.
func (e *DeterminismEvaluator) Evaluate(ctx context.Context) (*Result, error) {
	baseline, err := e.replay(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay 1: %w", err)
	}

	result := &Result{
		Deterministic: true,
		Replays:       e.replays,
	}

	for i := 1; i < e.replays; i++ {
		seq, err := e.replay(ctx)
		if err != nil {
			return nil, fmt.Errorf("replay %d: %w", i+1, err)
		}

		diffs := diffSequences(i+1, baseline, seq)
		if len(diffs) > 0 {
			result.Deterministic = false
			result.Diffs = append(result.Diffs, diffs...)
		}
	}

	return result, nil
}

// replay builds a fresh engine, runs it from a copy of the seeds and renders
// the outcome as a comparable line sequence.
func (e *DeterminismEvaluator) replay(ctx context.Context) ([]string, error) {
	eng, err := e.factory()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	initial := core.NewContext()

	for _, f := range e.seeds {
		if err := initial.Seed(f); err != nil {
			return nil, fmt.Errorf("seed %s/%s: %w", f.Key, f.ID, err)
		}
	}

	res, err := eng.Run(ctx, initial, e.budget)
	if err != nil {
		return nil, err
	}

	return fingerprint(res), nil
}

// fingerprint renders a run outcome as one line per observable property:
// the halt, then every committed fact in canonical key order and commit
// order within each key.
func fingerprint(res *core.ConvergeResult) []string {
	lines := []string{
		fmt.Sprintf("halt=%s cycles=%d", res.Halt.Kind, res.CyclesExecuted),
	}

	for _, key := range core.Keys() {
		for _, f := range res.Context.Get(key) {
			lines = append(lines, renderFact(f))
		}
	}

	return lines
}

func renderFact(f core.Fact) string {
	return fmt.Sprintf("%s/%s %s#%d@%d %s", f.Key, f.ID, f.Provenance.Agent, f.Provenance.AgentID, f.Provenance.Cycle, f.Content)
}

// diffSequences compares a replay line by line against the baseline and
// returns one diff per disagreeing position. Missing positions compare
// against the empty string.
func diffSequences(replay int, baseline, seq []string) []Diff {
	n := len(baseline)
	if len(seq) > n {
		n = len(seq)
	}

	var diffs []Diff

	for i := 0; i < n; i++ {
		var want, got string

		if i < len(baseline) {
			want = baseline[i]
		}

		if i < len(seq) {
			got = seq[i]
		}

		if want != got {
			diffs = append(diffs, Diff{
				Replay:   replay,
				Position: i,
				Want:     want,
				Got:      got,
			})
		}
	}

	return diffs
}
