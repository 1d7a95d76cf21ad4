package core

import "fmt"

var (
	// ErrUnknownKey is returned when a fact targets a key outside the closed
	// key set.
	ErrUnknownKey = fmt.Errorf("unknown context key")

	// ErrEmptyFactID is returned when a fact is committed without an ID.
	ErrEmptyFactID = fmt.Errorf("fact id must not be empty")
)

// ConflictError reports two facts claiming the same (key, id) with different
// content. It is a structural violation: the engine halts the run and leaves
// everything committed before the conflict in place.
type ConflictError struct {
	Key      ContextKey `json:"key"`
	ID       string     `json:"id"`
	Existing string     `json:"existing"`
	Incoming string     `json:"incoming"`
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("fact conflict on (%s, %s): existing content differs from incoming", e.Key, e.ID)
}

// Violation converts the conflict into a structural invariant violation for
// the halt reason.
func (e *ConflictError) Violation() *Violation {
	return &Violation{
		Invariant: "fact_conflict",
		Class:     ClassStructural,
		Detail:    e.Error(),
	}
}
