package core

import (
	"testing"
	"time"
)

func TestTracker_ZeroBudgetNeverExhausts(t *testing.T) {
	tr := NewTracker(Budget{})
	tr.AddCycle()
	tr.AddFacts(1000)

	if dim, ok := tr.Exhausted(); ok {
		t.Errorf("unlimited budget exhausted on %s", dim)
	}
}

func TestTracker_CycleLimit(t *testing.T) {
	tr := NewTracker(Budget{MaxCycles: 2})

	tr.AddCycle()
	if _, ok := tr.Exhausted(); ok {
		t.Error("one cycle of two should not exhaust")
	}

	tr.AddCycle()
	dim, ok := tr.Exhausted()
	if !ok || dim != DimensionCycles {
		t.Errorf("expected cycles exhaustion, got %q %v", dim, ok)
	}
}

func TestTracker_FactLimit(t *testing.T) {
	tr := NewTracker(Budget{MaxFacts: 3})
	tr.AddFacts(2)
	if _, ok := tr.Exhausted(); ok {
		t.Error("under the fact limit")
	}
	tr.AddFacts(1)
	if dim, ok := tr.Exhausted(); !ok || dim != DimensionFacts {
		t.Errorf("expected facts exhaustion, got %q %v", dim, ok)
	}
}

func TestTracker_CyclesReportedBeforeFacts(t *testing.T) {
	// Both limits tripped in the same check: the fixed dimension order
	// keeps the reported reason deterministic.
	tr := NewTracker(Budget{MaxCycles: 1, MaxFacts: 1})
	tr.AddCycle()
	tr.AddFacts(1)

	dim, ok := tr.Exhausted()
	if !ok || dim != DimensionCycles {
		t.Errorf("expected cycles to win the tie, got %q", dim)
	}
}

func TestTracker_TimeLimit(t *testing.T) {
	tr := NewTracker(Budget{MaxTime: time.Nanosecond})
	time.Sleep(time.Millisecond)

	if dim, ok := tr.Exhausted(); !ok || dim != DimensionTime {
		t.Errorf("expected time exhaustion, got %q %v", dim, ok)
	}
}
