package agent

import (
	"context"

	"github.com/hupe1980/factmesh/core"
)

// FuncAgentOptions configures a FuncAgent instance.
//
// Use functional options with NewFuncAgent to override defaults.
type FuncAgentOptions struct {
	// Dependencies are the context keys whose changes wake the agent after
	// the bootstrap cycle. Empty means the agent is a candidate every cycle.
	Dependencies []core.ContextKey
	// Accepts overrides the default always-accept predicate.
	Accepts func(view *core.View) bool
}

// FuncAgent adapts plain functions into a core.Agent, the quickest way to
// wire a programmatic contributor into an engine.
//
// Example:
//
//	seeder := agent.NewFuncAgent("seeder",
//	    func(ctx context.Context, view *core.View) (core.Effect, error) {
//	        return core.Effect{Facts: []core.Fact{
//	            core.NewFact(core.KeySignals, "sig-1", "load rising"),
//	        }}, nil
//	    },
//	    func(o *agent.FuncAgentOptions) {
//	        o.Accepts = func(view *core.View) bool { return !view.Has(core.KeySignals) }
//	    },
//	)
type FuncAgent struct {
	BaseAgent
	acceptFn  func(view *core.View) bool
	executeFn func(ctx context.Context, view *core.View) (core.Effect, error)
}

// NewFuncAgent creates an agent from an execute function. A nil execute
// function yields an agent that contributes nothing, which can still be
// useful as a probe in tests.
func NewFuncAgent(
	name string,
	execute func(ctx context.Context, view *core.View) (core.Effect, error),
	optFns ...func(o *FuncAgentOptions),
) *FuncAgent {
	opts := FuncAgentOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &FuncAgent{
		BaseAgent: NewBaseAgent(name, opts.Dependencies...),
		acceptFn:  opts.Accepts,
		executeFn: execute,
	}
}

// Accepts implements core.Agent.
func (a *FuncAgent) Accepts(view *core.View) bool {
	if a.acceptFn == nil {
		return a.BaseAgent.Accepts(view)
	}
	return a.acceptFn(view)
}

// Execute implements core.Agent.
func (a *FuncAgent) Execute(ctx context.Context, view *core.View) (core.Effect, error) {
	if a.executeFn == nil {
		return core.Effect{}, nil
	}
	return a.executeFn(ctx, view)
}
