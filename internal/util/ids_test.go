package util

import "testing"

func TestDeterministicID_Stable(t *testing.T) {
	a := DeterministicID("reducer", "signals", "latency")
	b := DeterministicID("reducer", "signals", "latency")
	if a != b {
		t.Errorf("same parts must give same id: %q != %q", a, b)
	}
	if a == DeterministicID("reducer", "signals", "throughput") {
		t.Error("different parts must give different ids")
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(a))
	}
}

func TestDeterministicID_PartBoundaries(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide.
	if DeterministicID("ab", "c") == DeterministicID("a", "bc") {
		t.Error("part boundaries must be preserved")
	}
}

func TestNewID_Unique(t *testing.T) {
	if NewID() == NewID() {
		t.Error("NewID should not repeat")
	}
}
