package proposal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/factmesh/core"
)

func TestDefaultPipeline_AcceptsWellFormedProposal(t *testing.T) {
	pl := DefaultPipeline()
	view := core.NewContext().Snapshot()

	err := pl.Process(view, core.NewProposedFact(core.KeyHypotheses, "h1", "latency is queue-bound"))
	assert.NoError(t, err)
}

func TestDefaultPipeline_RejectsMalformedProposals(t *testing.T) {
	pl := DefaultPipeline()
	view := core.NewContext().Snapshot()

	tests := []struct {
		name string
		prop core.ProposedFact
	}{
		{"unknown key", core.NewProposedFact(core.ContextKey("bogus"), "x", "y")},
		{"empty id", core.NewProposedFact(core.KeyHypotheses, "", "y")},
		{"blank content", core.NewProposedFact(core.KeyHypotheses, "h1", "   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pl.Process(view, tt.prop)
			assert.Error(t, err)
			assert.NotEqual(t, ErrDuplicate, err)
		})
	}
}

func TestDedupe_IdenticalIsSilentDuplicate(t *testing.T) {
	c := core.NewContext()
	require.NoError(t, c.AddFact(core.NewFact(core.KeyHypotheses, "h1", "stable")))

	pl := DefaultPipeline()
	err := pl.Process(c.Snapshot(), core.NewProposedFact(core.KeyHypotheses, "h1", "stable"))
	assert.Equal(t, ErrDuplicate, err)
}

func TestDedupe_ConflictingContentIsRejected(t *testing.T) {
	c := core.NewContext()
	require.NoError(t, c.AddFact(core.NewFact(core.KeyHypotheses, "h1", "stable")))

	pl := DefaultPipeline()
	err := pl.Process(c.Snapshot(), core.NewProposedFact(core.KeyHypotheses, "h1", "degraded"))
	require.Error(t, err)
	assert.NotEqual(t, ErrDuplicate, err)
	assert.Contains(t, err.Error(), "dedupe")
}

func TestSchemaProcessor_ValidatesGovernedKeysOnly(t *testing.T) {
	sp, err := NewSchemaProcessor(map[core.ContextKey]string{
		core.KeyProposals: `{"type":"object","required":["action"],"properties":{"action":{"type":"string"}}}`,
	})
	require.NoError(t, err)

	view := core.NewContext().Snapshot()

	// Governed key, conforming content.
	assert.NoError(t, sp.Process(view, core.NewProposedFact(core.KeyProposals, "p1", `{"action":"scale_out"}`)))

	// Governed key, missing required field.
	err = sp.Process(view, core.NewProposedFact(core.KeyProposals, "p2", `{"note":"no action"}`))
	assert.Error(t, err)

	// Governed key, not JSON at all.
	err = sp.Process(view, core.NewProposedFact(core.KeyProposals, "p3", "plain text"))
	assert.Error(t, err)

	// Ungoverned key passes untouched.
	assert.NoError(t, sp.Process(view, core.NewProposedFact(core.KeyHypotheses, "h1", "free text")))
}

func TestSchemaProcessor_RejectsBadSchema(t *testing.T) {
	_, err := NewSchemaProcessor(map[core.ContextKey]string{
		core.KeyProposals: `{"type": 42}`,
	})
	assert.Error(t, err)

	_, err = NewSchemaProcessor(map[core.ContextKey]string{
		core.ContextKey("bogus"): `{}`,
	})
	assert.Error(t, err)
}

func TestPromote_CarriesProvenance(t *testing.T) {
	prov := core.Provenance{Agent: "proposer", AgentID: 3, Cycle: 2}
	fact := Promote(core.NewProposedFact(core.KeyProposals, "p1", "content"), prov)

	assert.Equal(t, core.KeyProposals, fact.Key)
	assert.Equal(t, "p1", fact.ID)
	assert.Equal(t, "content", fact.Content)
	assert.Equal(t, prov, fact.Provenance)
}
