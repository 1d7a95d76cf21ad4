package invariant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/factmesh/core"
)

func seeded(t *testing.T, facts ...core.Fact) *core.View {
	t.Helper()
	c := core.NewContext()
	for _, f := range facts {
		require.NoError(t, c.AddFact(f))
	}
	return c.Snapshot()
}

func TestMinDistinctFacts(t *testing.T) {
	inv := MinDistinctFacts(core.KeyStrategies, 2, core.ClassAcceptance)

	v := inv.Check(seeded(t, core.NewFact(core.KeyStrategies, "s1", "rollout")))
	require.NotNil(t, v)
	assert.Equal(t, core.ClassAcceptance, v.Class)
	assert.Contains(t, v.Detail, "need at least 2")

	// Same content under a second id still counts as one.
	v = inv.Check(seeded(t,
		core.NewFact(core.KeyStrategies, "s1", "rollout"),
		core.NewFact(core.KeyStrategies, "s2", "rollout"),
	))
	assert.NotNil(t, v)

	v = inv.Check(seeded(t,
		core.NewFact(core.KeyStrategies, "s1", "rollout"),
		core.NewFact(core.KeyStrategies, "s2", "rollback"),
	))
	assert.Nil(t, v)
}

func TestRequireKey(t *testing.T) {
	inv := RequireKey(core.KeyEvaluations, core.ClassSemantic)

	require.NotNil(t, inv.Check(seeded(t)))
	assert.Nil(t, inv.Check(seeded(t, core.NewFact(core.KeyEvaluations, "e1", "scored"))))
}

func TestMaxFactsPerKey(t *testing.T) {
	inv := MaxFactsPerKey(core.KeySignals, 2)

	view := seeded(t,
		core.NewFact(core.KeySignals, "a", "1"),
		core.NewFact(core.KeySignals, "b", "2"),
	)
	assert.Nil(t, inv.Check(view))

	view = seeded(t,
		core.NewFact(core.KeySignals, "a", "1"),
		core.NewFact(core.KeySignals, "b", "2"),
		core.NewFact(core.KeySignals, "c", "3"),
	)
	v := inv.Check(view)
	require.NotNil(t, v)
	assert.Equal(t, core.ClassStructural, v.Class)
}

func TestNonEmptyContent(t *testing.T) {
	inv := NonEmptyContent()

	assert.Nil(t, inv.Check(seeded(t, core.NewFact(core.KeySeeds, "s1", "goal"))))

	v := inv.Check(seeded(t, core.NewFact(core.KeySeeds, "s1", "  ")))
	require.NotNil(t, v)
	assert.Contains(t, v.Detail, "empty content")
}

func TestRequireAuthority(t *testing.T) {
	inv := MinDistinctFacts(core.KeyStrategies, 2, core.ClassAcceptance).RequireAuthority()

	v := inv.Check(seeded(t))
	require.NotNil(t, v)
	assert.True(t, v.Authority)
}

func TestRegistry_GroupsByClass(t *testing.T) {
	r := NewRegistry(
		NonEmptyContent(),
		RequireKey(core.KeySignals, core.ClassSemantic),
		MinDistinctFacts(core.KeyStrategies, 2, core.ClassAcceptance),
	)

	assert.Equal(t, 3, r.Len())
	assert.Len(t, r.ByClass(core.ClassStructural), 1)
	assert.Len(t, r.ByClass(core.ClassSemantic), 1)
	assert.Len(t, r.ByClass(core.ClassAcceptance), 1)

	violations := r.CheckAll(core.ClassSemantic, seeded(t))
	require.Len(t, violations, 1)
	assert.Equal(t, "require_signals", violations[0].Invariant)
}

func TestCompile(t *testing.T) {
	invs, err := Compile([]RuleSpec{
		{Type: "min_distinct_facts", Key: "strategies", Min: 2},
		{Type: "require_key", Key: "evaluations", Class: "semantic"},
		{Type: "max_facts_per_key", Key: "signals", Max: 100},
		{Type: "non_empty_content"},
		{Type: "min_distinct_facts", Key: "constraints", Min: 1, Authority: true, Name: "constraint_signoff"},
	})
	require.NoError(t, err)
	require.Len(t, invs, 5)

	assert.Equal(t, core.ClassAcceptance, invs[0].Class())
	assert.Equal(t, core.ClassSemantic, invs[1].Class())
	assert.Equal(t, core.ClassStructural, invs[2].Class())
	assert.Equal(t, "constraint_signoff", invs[4].Name())

	v := invs[4].Check(core.NewContext().Snapshot())
	require.NotNil(t, v)
	assert.True(t, v.Authority)
}

func TestCompile_RejectsBadSpecs(t *testing.T) {
	cases := []RuleSpec{
		{Type: "unknown_rule"},
		{Type: "min_distinct_facts", Key: "bogus", Min: 1},
		{Type: "min_distinct_facts", Key: "strategies", Min: 0},
		{Type: "require_key", Key: "signals", Class: "fancy"},
		{Type: "max_facts_per_key", Key: "signals", Max: 10, Class: "semantic"},
		{Type: "require_key", Key: "signals", Class: "semantic", Authority: true},
	}
	for _, spec := range cases {
		_, err := Compile([]RuleSpec{spec})
		assert.Error(t, err, "spec %+v should not compile", spec)
	}
}
