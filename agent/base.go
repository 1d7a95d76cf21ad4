package agent

import (
	"github.com/hupe1980/factmesh/core"
)

// BaseAgent bundles identity and dependency declaration. Embed it in
// concrete agent implementations and supply an Execute method to satisfy the
// core.Agent interface; override Accepts for anything smarter than "always".
//
// BaseAgent is immutable after construction, which keeps embedders trivially
// safe for the engine's parallel execute phase.
type BaseAgent struct {
	name string
	deps []core.ContextKey
}

// NewBaseAgent constructs a BaseAgent. The dependency keys declare which
// dirty keys wake the agent after the bootstrap cycle; an agent with no
// dependencies is a candidate every cycle.
func NewBaseAgent(name string, deps ...core.ContextKey) BaseAgent {
	depsCopy := make([]core.ContextKey, len(deps))
	copy(depsCopy, deps)
	return BaseAgent{name: name, deps: depsCopy}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Dependencies returns a copy of the declared dependency keys.
func (b *BaseAgent) Dependencies() []core.ContextKey {
	out := make([]core.ContextKey, len(b.deps))
	copy(out, b.deps)
	return out
}

// Accepts reports whether the agent wants to execute against the view. The
// base implementation always accepts; embedders override it to skip cycles
// where they have nothing to add.
func (b *BaseAgent) Accepts(_ *core.View) bool { return true }
