// Package factmesh provides a high-level façade over the core engine and its
// supporting services (snapshot stores, journaling & logging) enabling rapid
// construction of deterministic fact-convergence systems. Most applications
// interact with this package by:
//  1. Creating a FactMesh via New() (optionally overriding default in-memory services)
//  2. Registering one or more agents (func-backed, model-backed, custom)
//  3. Seeding a context and running it to a halt (Run), streaming events
//     (RunAsync) or continuing an authority-halted run (Resume)
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply durable snapshot stores,
// a journal recorder and a structured logger.
package factmesh

import (
	"context"

	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/engine"
	"github.com/hupe1980/factmesh/logging"
	"github.com/hupe1980/factmesh/proposal"
	"github.com/hupe1980/factmesh/runner"
	"github.com/hupe1980/factmesh/snapshot"
)

// Options configures the FactMesh instance.
type Options struct {
	// Engine configuration (worker pool, agent timeout, event buffers)
	EngineConfig engine.Config

	// Budget applied to every run started through the façade. Zero
	// dimensions are unlimited.
	Budget core.Budget

	// SnapshotStore persists halted runs (defaults to in-memory if not
	// provided).
	SnapshotStore core.SnapshotStore

	// Recorder receives the fact-by-fact audit trail. Nil disables
	// journaling.
	Recorder core.Recorder

	// Invariants are checked during every run.
	Invariants []core.Invariant

	// Pipeline promotes proposed facts. Nil promotes everything unchanged.
	Pipeline *proposal.Pipeline

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// FactMesh is the high-level façade aggregating the underlying runner,
// engine and stores.
type FactMesh struct {
	opts   Options
	runner *runner.Runner
}

// New creates a new FactMesh instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *FactMesh {
	opts := Options{
		EngineConfig:  engine.DefaultConfig,
		SnapshotStore: snapshot.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := runner.New(func(o *runner.Options) {
		o.Engine = opts.EngineConfig
		o.Budget = opts.Budget
		o.Snapshots = opts.SnapshotStore
		o.Recorder = opts.Recorder
		o.Invariants = opts.Invariants
		o.Pipeline = opts.Pipeline
		o.Logger = opts.Logger
	})

	return &FactMesh{opts: opts, runner: r}
}

// Register adds an agent. Registration order is permanent and decides merge
// order within a cycle, so register agents in a deliberate, fixed order.
func (m *FactMesh) Register(a core.Agent) (core.AgentID, error) {
	return m.runner.Engine().Register(a)
}

// Run executes the context to a halt and persists a snapshot of the outcome.
func (m *FactMesh) Run(ctx context.Context, initial *core.Context) (*core.ConvergeResult, error) {
	return m.runner.Run(ctx, initial)
}

// RunAsync starts a run and returns its id plus event and error channels.
// Streaming runs bypass the façade's snapshot persistence; callers that need
// resumability should use Run.
func (m *FactMesh) RunAsync(ctx context.Context, initial *core.Context) (string, <-chan engine.Event, <-chan error, error) {
	return m.runner.Engine().RunAsync(ctx, initial, m.opts.Budget)
}

// Resume loads the snapshot of an authority-halted run, injects the
// authority fact and continues to the next halt.
func (m *FactMesh) Resume(ctx context.Context, runID string, authority core.Fact) (*core.ConvergeResult, error) {
	return m.runner.Resume(ctx, runID, authority)
}

// Stop cancels an active run by id.
func (m *FactMesh) Stop(runID string) error {
	return m.runner.Cancel(runID)
}

// Snapshots exposes the snapshot store backing Run and Resume.
func (m *FactMesh) Snapshots() core.SnapshotStore {
	return m.runner.Snapshots()
}

// Close releases any resources held by backing stores.
func (m *FactMesh) Close() error {
	return m.runner.Close()
}
