package core

import "fmt"

// HaltKind discriminates the closed set of ways a run can end. Callers
// branch on the kind; there is no open-ended failure surface.
type HaltKind string

const (
	// HaltConverged means a full cycle produced no new facts and every
	// acceptance invariant held.
	HaltConverged HaltKind = "converged"

	// HaltAwaitingAuthority means the run stopped at a decision only an
	// external authority can make. The reason carries a description of what
	// is needed; Resume with an authority fact continues the work.
	HaltAwaitingAuthority HaltKind = "awaiting_authority"

	// HaltInvariantViolation means a structural invariant failed terminally
	// or an acceptance invariant rejected the converged state.
	HaltInvariantViolation HaltKind = "invariant_violation"

	// HaltBudgetExhausted means a budget dimension ran out before the run
	// could converge.
	HaltBudgetExhausted HaltKind = "budget_exhausted"
)

// HaltReason is the closed variant describing why a run ended. Exactly the
// payload fields for its kind are set.
type HaltReason struct {
	Kind HaltKind `json:"kind"`

	// Authority describes what an external authority must decide. Set for
	// HaltAwaitingAuthority.
	Authority string `json:"authority,omitempty"`

	// Violation is the failed invariant check. Set for
	// HaltInvariantViolation.
	Violation *Violation `json:"violation,omitempty"`

	// Dimension is the exhausted budget axis. Set for HaltBudgetExhausted.
	Dimension BudgetDimension `json:"dimension,omitempty"`
}

// Converged builds the successful halt reason.
func Converged() HaltReason {
	return HaltReason{Kind: HaltConverged}
}

// AwaitingAuthority builds a halt reason deferring to an external authority.
func AwaitingAuthority(description string) HaltReason {
	return HaltReason{Kind: HaltAwaitingAuthority, Authority: description}
}

// InvariantViolated builds a halt reason for a terminal invariant failure.
func InvariantViolated(v *Violation) HaltReason {
	return HaltReason{Kind: HaltInvariantViolation, Violation: v}
}

// BudgetExhausted builds a halt reason for the given exhausted dimension.
func BudgetExhausted(dim BudgetDimension) HaltReason {
	return HaltReason{Kind: HaltBudgetExhausted, Dimension: dim}
}

// String renders a one-line human-readable summary.
func (h HaltReason) String() string {
	switch h.Kind {
	case HaltConverged:
		return "converged"
	case HaltAwaitingAuthority:
		return fmt.Sprintf("awaiting authority: %s", h.Authority)
	case HaltInvariantViolation:
		if h.Violation != nil {
			return fmt.Sprintf("invariant violation: %s", h.Violation.Error())
		}
		return "invariant violation"
	case HaltBudgetExhausted:
		return fmt.Sprintf("budget exhausted: %s", h.Dimension)
	default:
		return string(h.Kind)
	}
}
