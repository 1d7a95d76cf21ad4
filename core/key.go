package core

// ContextKey identifies one of the fixed fact channels of a Context. The key
// set is closed by design: agents declare dependencies on keys, the scheduler
// indexes agents by key and the merge path validates keys, so an open set
// would silently break scheduling and replay guarantees.
type ContextKey string

const (
	// KeySeeds holds the immutable inputs a run starts from.
	KeySeeds ContextKey = "seeds"
	// KeyHypotheses holds intermediate claims derived by agents.
	KeyHypotheses ContextKey = "hypotheses"
	// KeyStrategies holds actionable plans.
	KeyStrategies ContextKey = "strategies"
	// KeyConstraints holds restrictions other agents must honor.
	KeyConstraints ContextKey = "constraints"
	// KeySignals holds observations derived from seeds.
	KeySignals ContextKey = "signals"
	// KeyEvaluations holds assessments of other facts.
	KeyEvaluations ContextKey = "evaluations"
	// KeyProposals holds candidate outputs pending promotion.
	KeyProposals ContextKey = "proposals"
	// KeyDiagnostic holds non-semantic traces: timings, agent failures and
	// invariant violation records. Diagnostic facts are committed and
	// version-counted like any other fact but never enter the dirty-key set,
	// so they neither wake agents nor block convergence.
	KeyDiagnostic ContextKey = "diagnostic"
)

// contextKeys lists every key in canonical declaration order.
var contextKeys = []ContextKey{
	KeySeeds,
	KeyHypotheses,
	KeyStrategies,
	KeyConstraints,
	KeySignals,
	KeyEvaluations,
	KeyProposals,
	KeyDiagnostic,
}

// Keys returns all context keys in canonical order. The returned slice is a
// copy and safe for caller mutation.
func Keys() []ContextKey {
	out := make([]ContextKey, len(contextKeys))
	copy(out, contextKeys)
	return out
}

// Valid reports whether k is one of the declared context keys.
func (k ContextKey) Valid() bool {
	switch k {
	case KeySeeds, KeyHypotheses, KeyStrategies, KeyConstraints,
		KeySignals, KeyEvaluations, KeyProposals, KeyDiagnostic:
		return true
	default:
		return false
	}
}

// Semantic reports whether facts under k participate in convergence
// semantics. Diagnostic facts do not: they are never marked dirty.
func (k ContextKey) Semantic() bool {
	return k != KeyDiagnostic && k.Valid()
}

// String returns the key's wire representation.
func (k ContextKey) String() string { return string(k) }
