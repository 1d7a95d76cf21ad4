package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/factmesh/core"
)

// SequentialAgent groups child agents into a single contributor whose
// combined output commits atomically.
//
// All children execute against the same view, so a child never observes a
// sibling's uncommitted output; cross-child reactions happen across cycles,
// like between any other agents. What grouping adds is atomicity: either
// every child's contribution lands in one merge, or a failing child voids
// the whole turn.
//
// SequentialAgent is ideal for:
//   - Contributions that are only meaningful together
//   - Wrapping a fixed checklist of emitters behind one registration slot
//   - Keeping related facts in a predictable relative commit order
type SequentialAgent struct {
	BaseAgent
	children []core.Agent
}

// NewSequentialAgent creates a grouped contributor. Child order is permanent:
// it decides execution order and the relative commit order of the children's
// facts. The group's dependencies are the union of the children's.
func NewSequentialAgent(name string, children ...core.Agent) *SequentialAgent {
	return &SequentialAgent{
		BaseAgent: NewBaseAgent(name, unionDependencies(children)...),
		children:  children,
	}
}

// Accepts implements core.Agent: the group wants a turn when any child does.
func (s *SequentialAgent) Accepts(view *core.View) bool {
	for _, child := range s.children {
		if child.Accepts(view) {
			return true
		}
	}
	return false
}

// Execute implements core.Agent. Accepting children run one after another
// against the shared view; their effects concatenate in child order. The
// first child error aborts the turn and discards everything the group
// produced so far.
func (s *SequentialAgent) Execute(ctx context.Context, view *core.View) (core.Effect, error) {
	var combined core.Effect

	for _, child := range s.children {
		if !child.Accepts(view) {
			continue
		}

		effect, err := child.Execute(ctx, view)
		if err != nil {
			return core.Effect{}, fmt.Errorf("sequential child %s: %w", child.Name(), err)
		}

		combined.Facts = append(combined.Facts, effect.Facts...)
		combined.Proposals = append(combined.Proposals, effect.Proposals...)
	}

	return combined, nil
}

// unionDependencies merges the children's dependency keys, first occurrence
// wins the position.
func unionDependencies(children []core.Agent) []core.ContextKey {
	seen := make(map[core.ContextKey]struct{})
	var union []core.ContextKey

	for _, child := range children {
		for _, key := range child.Dependencies() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, key)
		}
	}

	return union
}
