// Package proposal implements the vetting pipeline that stands between agent
// proposals and the fact store. Agents may only suggest facts; a proposal
// becomes a committed fact when every processor in the pipeline passes it and
// Promote converts it. Rejected proposals never reach the merge path, which
// keeps unvetted candidates out of the store by construction.
package proposal

import (
	"fmt"

	"github.com/hupe1980/factmesh/core"
)

// Processor inspects one proposal against the current state. Implementations
// return nil to pass the proposal along, ErrDuplicate to drop it silently, or
// any other error to reject it.
//
// Processors must be pure: same view and proposal, same verdict.
type Processor interface {
	// Name identifies the processor in rejection diagnostics.
	Name() string

	// Process validates the proposal against the view.
	Process(view *core.View, p core.ProposedFact) error
}

// Pipeline runs processors in registration order and stops at the first
// failure. The zero pipeline accepts everything.
type Pipeline struct {
	processors []Processor
}

// NewPipeline creates a pipeline over the given processors. Order of
// registration defines execution order.
func NewPipeline(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// DefaultPipeline vets shape and duplicates, the minimum any engine needs.
func DefaultPipeline() *Pipeline {
	return NewPipeline(NewContentProcessor(), NewDedupeProcessor())
}

// Add appends a processor to the end of the pipeline.
func (pl *Pipeline) Add(p Processor) {
	pl.processors = append(pl.processors, p)
}

// Process runs the proposal through every processor in order. A nil return
// means the proposal may be promoted. ErrDuplicate passes through untouched
// so callers can skip silently; all other failures are wrapped with the
// processor name for the rejection diagnostic.
func (pl *Pipeline) Process(view *core.View, p core.ProposedFact) error {
	for _, proc := range pl.processors {
		if err := proc.Process(view, p); err != nil {
			if err == ErrDuplicate {
				return err
			}
			return fmt.Errorf("processor %s rejected proposal (%s, %s): %w", proc.Name(), p.Key, p.ID, err)
		}
	}
	return nil
}

// Promote converts an accepted proposal into a committable fact. This is the
// only place in the module where a ProposedFact becomes a Fact.
func Promote(p core.ProposedFact, prov core.Provenance) core.Fact {
	return core.Fact{Key: p.Key, ID: p.ID, Content: p.Content, Provenance: prov}
}
