package core

// Well-known provenance agent names for facts the engine itself authors or
// that enter the context outside a merge pass.
const (
	// ProvenanceSeed marks facts seeded into the context before a run.
	ProvenanceSeed = "seed"
	// ProvenanceAuthority marks the single fact injected on resume after an
	// awaiting-authority halt.
	ProvenanceAuthority = "authority"
	// ProvenanceEngine marks engine-authored records such as failure traces
	// and invariant violation diagnostics.
	ProvenanceEngine = "engine"
)

// Provenance records who contributed a fact and in which cycle. Seeds carry
// cycle 0; engine-authored diagnostics carry the cycle they describe.
// Provenance never participates in fact identity or idempotency checks.
type Provenance struct {
	// Agent is the contributing agent's name, or one of the well-known
	// Provenance* constants.
	Agent string `json:"agent"`
	// AgentID is the contributor's registration id; 0 for seeds, authority
	// injections and engine-authored records.
	AgentID AgentID `json:"agent_id"`
	// Cycle is the merge cycle the fact was committed in.
	Cycle int `json:"cycle"`
}

// Fact is one immutable, provenanced contribution to a Context. Content is
// opaque to the engine: it is never parsed, only compared for equality.
// Identity is the (Key, ID) pair; committing the same identity with identical
// content is an idempotent no-op, while different content is a structural
// conflict.
type Fact struct {
	// Key names the context channel the fact belongs to.
	Key ContextKey `json:"key"`
	// ID identifies the fact within its key. Agents that may re-emit a fact
	// across cycles must derive stable IDs so re-emission stays idempotent.
	ID string `json:"id"`
	// Content is the opaque payload.
	Content string `json:"content"`
	// Provenance records the contributor; stamped by the engine at merge.
	Provenance Provenance `json:"provenance"`
}

// NewFact builds a fact without provenance. The engine stamps provenance when
// the fact is committed, so agents normally leave it zero.
func NewFact(key ContextKey, id, content string) Fact {
	return Fact{Key: key, ID: id, Content: content}
}

// Equal reports whether two facts carry the same key, id and content.
// Provenance is deliberately excluded: identity and idempotency are defined
// over (key, id, content) only.
func (f Fact) Equal(other Fact) bool {
	return f.Key == other.Key && f.ID == other.ID && f.Content == other.Content
}

// ProposedFact is a candidate fact prior to validation and promotion. It
// mirrors Fact structurally but is a distinct type on purpose: the context's
// add path accepts only Fact, so an un-promoted candidate cannot reach merge
// without passing through a promotion pipeline. The sole conversion lives in
// the proposal package.
type ProposedFact struct {
	// Key names the context channel the candidate targets.
	Key ContextKey `json:"key"`
	// ID identifies the candidate within its key.
	ID string `json:"id"`
	// Content is the opaque payload.
	Content string `json:"content"`
}

// NewProposedFact builds a candidate fact.
func NewProposedFact(key ContextKey, id, content string) ProposedFact {
	return ProposedFact{Key: key, ID: id, Content: content}
}
