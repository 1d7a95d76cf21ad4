package core

import "fmt"

// InvariantClass determines when an invariant is checked and what its
// violation does to the run.
type InvariantClass string

const (
	// ClassStructural invariants are checked incrementally as facts commit.
	// A violation is terminal: the run halts immediately.
	ClassStructural InvariantClass = "structural"

	// ClassSemantic invariants are checked after every merge pass. A
	// violation records a diagnostic fact and blocks convergence for that
	// cycle, but the run continues.
	ClassSemantic InvariantClass = "semantic"

	// ClassAcceptance invariants are checked only when the engine is about
	// to declare convergence. A violation downgrades the halt reason.
	ClassAcceptance InvariantClass = "acceptance"
)

// Invariant is a named predicate over the context state. Checks must be
// pure: same view, same verdict, no side effects.
type Invariant interface {
	// Name identifies the invariant in diagnostics and halt reasons.
	Name() string

	// Class returns when this invariant applies.
	Class() InvariantClass

	// Check returns nil when the invariant holds, or a violation describing
	// what failed.
	Check(view *View) *Violation
}

// Violation describes a failed invariant check.
type Violation struct {
	Invariant string         `json:"invariant"`
	Class     InvariantClass `json:"class"`
	Detail    string         `json:"detail"`

	// Authority marks an acceptance violation that a human or external
	// system must resolve; it turns the downgrade into AwaitingAuthority
	// instead of InvariantViolation.
	Authority bool `json:"authority,omitempty"`
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("invariant %q (%s) violated: %s", v.Invariant, v.Class, v.Detail)
}
