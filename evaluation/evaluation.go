// Package evaluation provides harnesses that judge runtime properties of an
// engine configuration, such as whether repeated runs from the same seeds
// reproduce the same facts.
package evaluation

import (
	"context"
	"fmt"

	"github.com/hupe1980/factmesh/engine"
)

// Factory builds a fresh engine for a single replay. Each call must register
// the same agents in the same order; the evaluator relies on that to compare
// replays fact for fact.
type Factory func() (*engine.Engine, error)

// Diff describes one position at which two replays disagreed.
type Diff struct {
	Replay   int    `json:"replay"`
	Position int    `json:"position"`
	Want     string `json:"want"`
	Got      string `json:"got"`
}

func (d Diff) String() string {
	return fmt.Sprintf("replay %d, position %d: want %q, got %q", d.Replay, d.Position, d.Want, d.Got)
}

// Result reports the outcome of an evaluation.
type Result struct {
	Deterministic bool   `json:"deterministic"`
	Replays       int    `json:"replays"`
	Diffs         []Diff `json:"diffs,omitempty"`
}

// Evaluator judges a property of an engine configuration.
type Evaluator interface {
	Evaluate(ctx context.Context) (*Result, error)
}
