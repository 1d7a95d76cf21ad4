package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/invariant"
	"github.com/hupe1980/factmesh/logging"
	"github.com/hupe1980/factmesh/proposal"
)

var (
	// ErrNoAgents is returned when a run starts with an empty registry.
	ErrNoAgents = fmt.Errorf("no agents registered")

	// ErrRunActive is returned when Register is called while a run is in
	// flight. The agent set is closed per run so agent IDs stay stable.
	ErrRunActive = fmt.Errorf("run in progress")

	// ErrUnknownRun is returned by StopRun for an unknown run ID.
	ErrUnknownRun = fmt.Errorf("unknown run")
)

// Config defines tuning parameters for the Engine's operational behavior.
//
// This configuration focuses on execution mechanics only:
//   - Concurrency: how many agents may execute at once within a cycle
//   - Containment: the hard per-agent execution timeout
//   - Buffering: channel buffer size for event streaming
//
// Semantics (budgets, invariants, pipelines) are deliberately not part of
// Config: they are per-run or per-engine concerns configured via Options and
// Run parameters.
type Config struct {
	// MaxWorkers limits how many agents execute concurrently within one
	// cycle. Set to 0 to run every eligible agent at once. The limit bounds
	// resources only; it can never change the merged outcome.
	MaxWorkers int

	// AgentTimeout is the hard wall-clock limit for a single Execute call.
	// An agent that overruns is abandoned and contributes only a diagnostic
	// fact.
	AgentTimeout time.Duration

	// EventBufferSize sets the channel buffer size for RunAsync event
	// streaming. Larger buffers reduce engine stalls against slow consumers
	// at the cost of memory.
	EventBufferSize int
}

// DefaultConfig provides production-ready default configuration values:
// bounded concurrency, a generous but finite agent timeout and a buffer
// large enough for bursty cycles.
var DefaultConfig = Config{
	MaxWorkers:      8,
	AgentTimeout:    30 * time.Second,
	EventBufferSize: 128,
}

// Options configures an Engine instance using the functional options
// pattern. All fields have working defaults so the zero configuration is a
// fully usable in-memory engine.
//
// Example:
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.Logger = myLogger
//	    o.Invariants = []core.Invariant{invariant.NonEmptyContent()}
//	    o.Recorder = journalRecorder
//	})
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil to ensure no logging dependencies.
	Logger logging.Logger

	// Invariants are the checks enforced on every run of this engine,
	// grouped internally by class.
	Invariants []core.Invariant

	// Pipeline vets agent proposals before promotion. Defaults to
	// proposal.DefaultPipeline (shape and duplicate checks).
	Pipeline *proposal.Pipeline

	// Recorder receives the audit trail of every run. Nil disables
	// journaling.
	Recorder core.Recorder

	// Callbacks observe run lifecycle points. Nil disables callbacks.
	Callbacks *CallbackManager
}

// Engine drives agents to a fixed point over a shared fact context.
//
// Core responsibilities:
//   - Agent registry: registration-ordered IDs and a dependency index
//   - Cycle loop: eligibility, parallel execute, serial merge, gates
//   - Run management: synchronous and streaming execution, cancellation
//
// Concurrency model:
//   - Registry access is guarded by an RWMutex; the registry is frozen
//     while any run is active
//   - Each run executes on the caller's goroutine (Run) or a dedicated one
//     (RunAsync); runs never share mutable state
//   - Agent goroutines only ever see immutable views
//
// The zero-dependency defaults make the engine immediately usable in tests
// and examples; production setups inject logger, recorder and invariants.
type Engine struct {
	config    Config
	logger    logging.Logger
	registry  *invariant.Registry
	pipeline  *proposal.Pipeline
	recorder  core.Recorder
	callbacks *CallbackManager

	// Agent registry - registration order defines agent IDs.
	agents   []core.Agent
	names    map[string]core.AgentID
	depIndex map[core.ContextKey][]core.AgentID
	always   []core.AgentID // agents with no declared dependencies
	mu       sync.RWMutex

	// Active run tracking - protected by separate mutex.
	activeRuns map[string]context.CancelFunc
	runsMu     sync.RWMutex
}

// New creates an Engine with sensible defaults and optional configuration.
//
// The constructor uses the functional options pattern: pass closures that
// mutate Options. Defaults favor immediate usability — no-op logging, the
// default proposal pipeline, no invariants, no journal.
//
// The returned Engine is ready for Register calls and is safe for
// concurrent use.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:   DefaultConfig,
		Logger:   logging.NoOpLogger{},
		Pipeline: proposal.DefaultPipeline(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Pipeline == nil {
		opts.Pipeline = proposal.DefaultPipeline()
	}

	return &Engine{
		config:     opts.Config,
		logger:     opts.Logger,
		registry:   invariant.NewRegistry(opts.Invariants...),
		pipeline:   opts.Pipeline,
		recorder:   opts.Recorder,
		callbacks:  opts.Callbacks,
		names:      make(map[string]core.AgentID),
		depIndex:   make(map[core.ContextKey][]core.AgentID),
		activeRuns: make(map[string]context.CancelFunc),
	}
}

// Register adds an agent to the registry and assigns its ID.
//
// IDs are handed out in registration order starting at 0 and are the sole
// tie-break when several agents contribute in the same cycle, so the order
// of Register calls is part of a deployment's deterministic behavior.
//
// Registration fails with ErrRunActive while any run is in flight, with a
// DuplicateAgentError for a reused name, and with core.ErrUnknownKey when
// the agent declares a dependency outside the closed key set.
func (e *Engine) Register(a core.Agent) (core.AgentID, error) {
	e.runsMu.RLock()
	active := len(e.activeRuns)
	e.runsMu.RUnlock()
	if active > 0 {
		return 0, ErrRunActive
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	name := a.Name()
	if name == "" {
		return 0, fmt.Errorf("agent name must not be empty")
	}
	if _, exists := e.names[name]; exists {
		return 0, &DuplicateAgentError{Name: name}
	}
	for _, key := range a.Dependencies() {
		if !key.Valid() {
			return 0, fmt.Errorf("agent %s: %w: %q", name, core.ErrUnknownKey, string(key))
		}
	}

	id := core.AgentID(len(e.agents))
	e.agents = append(e.agents, a)
	e.names[name] = id

	deps := a.Dependencies()
	if len(deps) == 0 {
		e.always = append(e.always, id)
	}
	for _, key := range deps {
		e.depIndex[key] = append(e.depIndex[key], id)
	}

	e.logger.Debug("engine.agent.registered", "agent", name, "id", int(id), "dependencies", len(deps))
	return id, nil
}

// Agents returns the registration records in ID order.
func (e *Engine) Agents() []core.AgentInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]core.AgentInfo, len(e.agents))
	for i, a := range e.agents {
		deps := a.Dependencies()
		depsCopy := make([]core.ContextKey, len(deps))
		copy(depsCopy, deps)
		out[i] = core.AgentInfo{ID: core.AgentID(i), Name: a.Name(), Dependencies: depsCopy}
	}
	return out
}

// StopRun cancels an in-flight run by ID. The run ends with a wrapped
// context.Canceled error on its Run/RunAsync surface.
func (e *Engine) StopRun(runID string) error {
	e.runsMu.Lock()
	cancel, exists := e.activeRuns[runID]
	e.runsMu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	cancel()
	return nil
}

// DuplicateAgentError reports a second registration under an existing name.
type DuplicateAgentError struct {
	Name string `json:"name"`
}

// Error implements the error interface.
func (e *DuplicateAgentError) Error() string {
	return fmt.Sprintf("agent %q already registered", e.Name)
}

// ConvergeError wraps failures of the run machinery itself: context
// cancellation or caller misuse. Domain outcomes (conflicts, budget
// exhaustion, rejected acceptance) are never errors; they arrive as
// HaltReason values on the result.
type ConvergeError struct {
	RunID string
	Err   error
}

// Error implements the error interface.
func (e *ConvergeError) Error() string {
	return fmt.Sprintf("run %s failed: %v", e.RunID, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *ConvergeError) Unwrap() error { return e.Err }
