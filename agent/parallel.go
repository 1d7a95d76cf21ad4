package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/factmesh/core"
)

// ParallelAgent groups child agents like SequentialAgent but executes the
// accepting children concurrently. Results are merged by child declaration
// order, never by completion order, so the group's output is identical to
// the sequential variant's; concurrency changes wall time only.
//
// ParallelAgent is ideal for:
//   - Children doing independent I/O, such as several model-backed drafters
//   - Collapsing a slow fan-out into one registration slot
type ParallelAgent struct {
	BaseAgent
	children []core.Agent
}

// NewParallelAgent creates a concurrent grouped contributor. Child order is
// permanent and decides the merged output order regardless of which child
// finishes first.
func NewParallelAgent(name string, children ...core.Agent) *ParallelAgent {
	return &ParallelAgent{
		BaseAgent: NewBaseAgent(name, unionDependencies(children)...),
		children:  children,
	}
}

// Accepts implements core.Agent: the group wants a turn when any child does.
func (p *ParallelAgent) Accepts(view *core.View) bool {
	for _, child := range p.children {
		if child.Accepts(view) {
			return true
		}
	}
	return false
}

// Execute implements core.Agent. Accepting children run concurrently against
// the shared view. Effects and errors land in slots indexed by child
// position, so the combined effect and the reported error are deterministic:
// the first erroring child by declaration order wins, even when a later
// sibling failed earlier in wall time.
func (p *ParallelAgent) Execute(ctx context.Context, view *core.View) (core.Effect, error) {
	effects := make([]core.Effect, len(p.children))
	errs := make([]error, len(p.children))

	var wg sync.WaitGroup

	for i, child := range p.children {
		if !child.Accepts(view) {
			continue
		}

		wg.Add(1)
		go func(slot int, c core.Agent) {
			defer wg.Done()
			effects[slot], errs[slot] = c.Execute(ctx, view)
		}(i, child)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return core.Effect{}, fmt.Errorf("parallel child %s: %w", p.children[i].Name(), err)
		}
	}

	var combined core.Effect
	for _, effect := range effects {
		combined.Facts = append(combined.Facts, effect.Facts...)
		combined.Proposals = append(combined.Proposals, effect.Proposals...)
	}

	return combined, nil
}
