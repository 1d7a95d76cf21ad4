package core

import (
	"sync"
	"time"
)

// Tracker accumulates consumption against a Budget over the lifetime of a
// run. It is safe for concurrent use.
//
// Exhaustion is checked dimension by dimension in a fixed order (cycles,
// facts, time) so that a run breaching several limits at once always reports
// the same dimension.
type Tracker struct {
	budget Budget
	start  time.Time
	cycles int
	facts  int
	mu     sync.Mutex
}

// NewTracker creates a tracker for the given budget. The time dimension
// starts counting immediately.
func NewTracker(budget Budget) *Tracker {
	return &Tracker{budget: budget, start: time.Now()}
}

// AddCycle records one completed engine cycle.
func (t *Tracker) AddCycle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cycles++
}

// AddFacts records n committed facts.
func (t *Tracker) AddFacts(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.facts += n
}

// Cycles returns the number of cycles recorded so far.
func (t *Tracker) Cycles() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cycles
}

// Facts returns the number of facts recorded so far.
func (t *Tracker) Facts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.facts
}

// Elapsed returns wall-clock time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Exhausted returns the first budget dimension whose limit has been reached,
// or false when the run may continue. Disabled dimensions never exhaust.
func (t *Tracker) Exhausted() (BudgetDimension, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.budget.MaxCycles > 0 && t.cycles >= t.budget.MaxCycles {
		return DimensionCycles, true
	}
	if t.budget.MaxFacts > 0 && t.facts >= t.budget.MaxFacts {
		return DimensionFacts, true
	}
	if t.budget.MaxTime > 0 && time.Since(t.start) >= t.budget.MaxTime {
		return DimensionTime, true
	}
	return "", false
}
