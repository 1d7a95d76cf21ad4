package core

import (
	"encoding/json"
	"testing"
)

func TestHaltReason_Constructors(t *testing.T) {
	if h := Converged(); h.Kind != HaltConverged {
		t.Errorf("unexpected kind %q", h.Kind)
	}

	h := AwaitingAuthority("approve rollout strategy")
	if h.Kind != HaltAwaitingAuthority || h.Authority != "approve rollout strategy" {
		t.Errorf("unexpected reason %+v", h)
	}

	v := &Violation{Invariant: "fact_conflict", Class: ClassStructural, Detail: "boom"}
	if h := InvariantViolated(v); h.Kind != HaltInvariantViolation || h.Violation != v {
		t.Errorf("unexpected reason %+v", h)
	}

	if h := BudgetExhausted(DimensionCycles); h.Kind != HaltBudgetExhausted || h.Dimension != DimensionCycles {
		t.Errorf("unexpected reason %+v", h)
	}
}

func TestHaltReason_JSONRoundTrip(t *testing.T) {
	orig := InvariantViolated(&Violation{
		Invariant: "min_strategies",
		Class:     ClassAcceptance,
		Detail:    "need at least 2 distinct strategies",
	})

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var restored HaltReason
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if restored.Kind != HaltInvariantViolation || restored.Violation == nil {
		t.Fatalf("round trip lost payload: %+v", restored)
	}
	if restored.Violation.Invariant != "min_strategies" || restored.Violation.Class != ClassAcceptance {
		t.Errorf("violation fields lost: %+v", restored.Violation)
	}
}

func TestHaltReason_String(t *testing.T) {
	if s := BudgetExhausted(DimensionFacts).String(); s != "budget exhausted: facts" {
		t.Errorf("unexpected string %q", s)
	}
	if s := Converged().String(); s != "converged" {
		t.Errorf("unexpected string %q", s)
	}
}
