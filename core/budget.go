package core

import "time"

// BudgetDimension names one resource axis a budget can exhaust.
type BudgetDimension string

const (
	DimensionCycles BudgetDimension = "cycles"
	DimensionFacts  BudgetDimension = "facts"
	DimensionTime   BudgetDimension = "time"
)

// Budget caps a run along three independent dimensions. The zero value of a
// dimension disables it, so the zero Budget places no limits at all. A budget
// is fixed for the lifetime of a run.
type Budget struct {
	// MaxCycles limits how many engine cycles may execute.
	MaxCycles int `json:"max_cycles,omitempty"`

	// MaxFacts limits the total number of committed facts, seeds included.
	MaxFacts int `json:"max_facts,omitempty"`

	// MaxTime limits wall-clock time from run start.
	MaxTime time.Duration `json:"max_time,omitempty"`
}

// Unlimited reports whether no dimension is capped.
func (b Budget) Unlimited() bool {
	return b.MaxCycles == 0 && b.MaxFacts == 0 && b.MaxTime == 0
}
