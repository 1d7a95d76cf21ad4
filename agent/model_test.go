package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/internal/util"
	"github.com/hupe1980/factmesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel is a model.Model returning a fixed completion and capturing
// the last request for prompt assertions.
type scriptedModel struct {
	response string
	err      error
	lastReq  model.Request
}

func (m *scriptedModel) Complete(_ context.Context, req model.Request) (*model.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &model.Response{Content: m.response, FinishReason: "stop"}, nil
}

func (m *scriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test"}
}

func viewWith(t *testing.T, facts ...core.Fact) *core.View {
	t.Helper()
	c := core.NewContext()
	for _, f := range facts {
		require.NoError(t, c.AddFact(f))
	}
	return c.Snapshot()
}

func provenanced(f core.Fact, agentName string) core.Fact {
	f.Provenance = core.Provenance{Agent: agentName, Cycle: 1}
	return f
}

func TestNewModelAgent_Defaults(t *testing.T) {
	a := NewModelAgent("drafter", &scriptedModel{})

	assert.Equal(t, "drafter", a.Name())
	assert.Empty(t, a.Dependencies())
	assert.Equal(t, core.KeyProposals, a.TargetKey())
}

func TestModelAgent_ExecuteDraftsProposals(t *testing.T) {
	llm := &scriptedModel{
		response: "- split the load\n\n2. cache hot keys\nsplit the load\n* add a replica\nbeyond the cap",
	}
	a := NewModelAgent("drafter", llm, func(o *ModelAgentOptions) {
		o.Dependencies = []core.ContextKey{core.KeySignals}
		o.TargetKey = core.KeyStrategies
		o.MaxProposals = 3
	})

	view := viewWith(t, core.NewFact(core.KeySignals, "sig-1", "load rising"))
	eff, err := a.Execute(context.Background(), view)
	require.NoError(t, err)

	require.Len(t, eff.Proposals, 3)
	contents := make([]string, len(eff.Proposals))
	for i, p := range eff.Proposals {
		assert.Equal(t, core.KeyStrategies, p.Key)
		contents[i] = p.Content
	}
	// Bullets and numbering are stripped, the duplicate line is dropped and
	// the cap cuts the tail.
	assert.Equal(t, []string{"split the load", "cache hot keys", "add a replica"}, contents)

	// Ids are content-derived: the same statement always maps to the same fact.
	assert.Equal(t, util.DeterministicID("drafter", "strategies", "split the load"), eff.Proposals[0].ID)

	assert.Contains(t, llm.lastReq.System, "You are drafter")
	assert.Contains(t, llm.lastReq.Prompt, "signals: load rising")
	assert.Contains(t, llm.lastReq.Prompt, "up to 3 new strategies")
}

func TestModelAgent_AcceptsGating(t *testing.T) {
	a := NewModelAgent("drafter", &scriptedModel{}, func(o *ModelAgentOptions) {
		o.Dependencies = []core.ContextKey{core.KeySignals}
		o.TargetKey = core.KeyStrategies
	})

	// Dependencies must be present.
	assert.False(t, a.Accepts(viewWith(t)))

	signal := core.NewFact(core.KeySignals, "sig-1", "load rising")
	assert.True(t, a.Accepts(viewWith(t, signal)))

	// A committed strategy with the agent's own provenance means the work is
	// done; someone else's contribution does not.
	own := provenanced(core.NewFact(core.KeyStrategies, "s-1", "split"), "drafter")
	assert.False(t, a.Accepts(viewWith(t, signal, own)))

	other := provenanced(core.NewFact(core.KeyStrategies, "s-2", "cache"), "rival")
	assert.True(t, a.Accepts(viewWith(t, signal, other)))
}

func TestModelAgent_ExecuteModelError(t *testing.T) {
	llm := &scriptedModel{err: errors.New("rate limited")}
	a := NewModelAgent("drafter", llm)

	_, err := a.Execute(context.Background(), viewWith(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model scripted")
	assert.ErrorIs(t, err, llm.err)
}

func TestModelAgent_PromptTemplate(t *testing.T) {
	llm := &scriptedModel{response: "shed load"}
	a := NewModelAgent("drafter", llm, func(o *ModelAgentOptions) {
		o.Dependencies = []core.ContextKey{core.KeySignals}
		o.TargetKey = core.KeyStrategies
		o.PromptTemplate = "Signals:\n{{.signals}}\nReply with strategies."
	})

	view := viewWith(t,
		core.NewFact(core.KeySignals, "sig-1", "load rising"),
		core.NewFact(core.KeySignals, "sig-2", "disk filling"),
	)
	_, err := a.Execute(context.Background(), view)
	require.NoError(t, err)

	assert.Equal(t, "Signals:\nload rising\ndisk filling\nReply with strategies.", llm.lastReq.Prompt)
}

func TestModelAgent_CustomInstruction(t *testing.T) {
	llm := &scriptedModel{response: "x"}
	a := NewModelAgent("drafter", llm, func(o *ModelAgentOptions) {
		o.Instruction = NewInstructionFromFunc(func(view *core.View) (string, error) {
			if view.Has(core.KeyConstraints) {
				return "Honor the constraints.", nil
			}
			return "No constraints yet.", nil
		})
	})

	_, err := a.Execute(context.Background(), viewWith(t))
	require.NoError(t, err)
	assert.Equal(t, "No constraints yet.", llm.lastReq.System)

	_, err = a.Execute(context.Background(), viewWith(t, core.NewFact(core.KeyConstraints, "c-1", "budget fixed")))
	require.NoError(t, err)
	assert.Equal(t, "Honor the constraints.", llm.lastReq.System)
}

func TestCleanLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain statement", "plain statement"},
		{"- bulleted", "bulleted"},
		{"* starred", "starred"},
		{"1. numbered", "numbered"},
		{"12. double digit", "double digit"},
		{"  padded  ", "padded"},
		{"", ""},
		{"   ", ""},
		{"v1.2 is fine", "v1.2 is fine"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanLine(tt.in), "input %q", tt.in)
	}
}
