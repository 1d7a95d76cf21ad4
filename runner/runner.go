package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/engine"
	"github.com/hupe1980/factmesh/logging"
	"github.com/hupe1980/factmesh/proposal"
	"github.com/hupe1980/factmesh/snapshot"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Engine contains operational parameters for the underlying engine.
	Engine engine.Config

	// Budget is the default budget applied to every run started through the
	// runner. The zero value places no limits.
	Budget core.Budget

	// Snapshots persists halted runs for later resumption. Defaults to an
	// in-memory store.
	Snapshots core.SnapshotStore

	// Recorder receives the audit trail of every run. Nil disables
	// journaling.
	Recorder core.Recorder

	// Invariants are enforced on every run started through the runner.
	Invariants []core.Invariant

	// Pipeline vets agent proposals before promotion.
	Pipeline *proposal.Pipeline

	// Callbacks observe run lifecycle points. Nil disables callbacks.
	Callbacks *engine.CallbackManager

	// Logger provides structured logging.
	Logger logging.Logger
}

// Runner owns an engine and its persistence. Every halt is written to the
// snapshot store, so any run the runner has driven can later be inspected
// or, if it halted awaiting authority, resumed by id. Public methods are
// safe for concurrent use.
type Runner struct {
	engine    *engine.Engine
	snapshots core.SnapshotStore
	budget    core.Budget
	logger    logging.Logger

	// closers are backends opened by FromConfig that the runner owns.
	closers []io.Closer
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		Engine:    engine.DefaultConfig,
		Snapshots: snapshot.NewInMemoryStore(),
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Snapshots == nil {
		opts.Snapshots = snapshot.NewInMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	eng := engine.New(func(o *engine.Options) {
		o.Config = opts.Engine
		o.Logger = opts.Logger
		o.Invariants = opts.Invariants
		o.Pipeline = opts.Pipeline
		o.Recorder = opts.Recorder
		o.Callbacks = opts.Callbacks
	})

	return &Runner{
		engine:    eng,
		snapshots: opts.Snapshots,
		budget:    opts.Budget,
		logger:    opts.Logger,
	}
}

// Register adds agents to the owned engine in the given order. Registration
// order assigns agent ids, which decide merge order, so it is part of a
// deployment's deterministic identity.
func (r *Runner) Register(agents ...core.Agent) error {
	for _, a := range agents {
		if _, err := r.engine.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// Engine exposes the owned engine for callers that need event streaming or
// per-run budgets beyond the runner's default.
func (r *Runner) Engine() *engine.Engine {
	return r.engine
}

// Snapshots exposes the snapshot store, e.g. for listing resumable runs.
func (r *Runner) Snapshots() core.SnapshotStore {
	return r.snapshots
}

// Run executes until a halt under the configured default budget and
// persists the outcome. initial may be nil for an empty context.
func (r *Runner) Run(ctx context.Context, initial *core.Context) (*core.ConvergeResult, error) {
	res, err := r.engine.Run(ctx, initial, r.budget)
	if err != nil {
		return nil, err
	}

	r.persist(res)
	return res, nil
}

// Resume loads the snapshot for runID, injects the authority fact and
// drives the run to its next halt, which is persisted under the same id.
// The authority fact must target the key the halt was waiting on; its
// provenance is stamped by the engine.
func (r *Runner) Resume(ctx context.Context, runID string, authority core.Fact) (*core.ConvergeResult, error) {
	snap, err := r.snapshots.Load(runID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", runID, err)
	}

	res, err := r.engine.Resume(ctx, snap, authority, r.budget)
	if err != nil {
		return nil, err
	}

	r.persist(res)
	return res, nil
}

// Cancel aborts an active run by id.
func (r *Runner) Cancel(runID string) error {
	return r.engine.StopRun(runID)
}

// Close releases the persistence backends the runner owns. Runners built
// with New and caller-supplied stores own nothing and Close is a no-op.
func (r *Runner) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// persist writes the halted run to the snapshot store. Persistence failures
// are logged, not returned: the result in hand is already authoritative.
func (r *Runner) persist(res *core.ConvergeResult) {
	snap := &core.Snapshot{
		RunID:          res.RunID,
		Context:        res.Context,
		Halt:           res.Halt,
		CyclesExecuted: res.CyclesExecuted,
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.snapshots.Save(snap); err != nil {
		r.logger.Warn("runner.snapshot.save_failed", "run_id", res.RunID, "error", err.Error())
		return
	}
	r.logger.Debug("runner.snapshot.saved", "run_id", res.RunID, "reason", res.Halt.String())
}
