package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/factmesh/core"
	"github.com/hupe1980/factmesh/internal/util"
	"github.com/hupe1980/factmesh/model"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	// Instruction is the system prompt for the drafting call. Defaults to a
	// role description derived from the agent name and target key.
	Instruction Instruction
	// Dependencies are the context keys whose facts feed the prompt and
	// whose changes wake the agent.
	Dependencies []core.ContextKey
	// TargetKey is the context key the drafted proposals aim at. Defaults
	// to core.KeyProposals.
	TargetKey core.ContextKey
	// MaxProposals caps how many lines of a completion become proposals.
	MaxProposals int
	// PromptTemplate overrides the default fact listing. It is rendered
	// with each dependency key's contents available as {{.<key>}} and the
	// full listing as {{.facts}}.
	PromptTemplate string
}

// ModelAgent drafts candidate facts from language model completions.
//
// Each execution serializes the dependency facts into a prompt, asks the
// model for contributions and parses the completion into ProposedFacts, one
// per non-empty line. Proposal ids are derived from the content, so a model
// restating an earlier contribution is idempotent rather than conflicting.
//
// Completions are the one non-deterministic input a run can have; drafted
// contributions therefore enter as proposals and face the vetting pipeline,
// never as direct facts.
//
// The agent is stateless: whether it already contributed is read from the
// committed provenance in the view, not from memory, so a resumed run
// observes the same behavior as the original one.
type ModelAgent struct {
	BaseAgent
	llm            model.Model
	instruction    Instruction
	targetKey      core.ContextKey
	maxProposals   int
	promptTemplate string
}

// NewModelAgent creates a model-backed drafting agent with sensible
// defaults: proposals targeted at core.KeyProposals, at most three per
// execution and a generic role instruction.
//
// Parameters:
//   - name: Human-readable name, also used to derive stable proposal ids
//   - llm: Language model implementation for drafting
//
// Returns a fully configured ModelAgent ready for Register.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		TargetKey:    core.KeyProposals,
		MaxProposals: 3,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxProposals <= 0 {
		opts.MaxProposals = 3
	}
	instruction := opts.Instruction
	if instruction.IsStatic() && instruction.text == "" {
		instruction = NewInstructionFromText(fmt.Sprintf(
			"You are %s. Contribute new %s as short, self-contained statements, one per line. Do not restate known facts.",
			name, opts.TargetKey,
		))
	}

	return &ModelAgent{
		BaseAgent:      NewBaseAgent(name, opts.Dependencies...),
		llm:            llm,
		instruction:    instruction,
		targetKey:      opts.TargetKey,
		maxProposals:   opts.MaxProposals,
		promptTemplate: opts.PromptTemplate,
	}
}

// TargetKey returns the context key the agent's proposals aim at.
func (a *ModelAgent) TargetKey() core.ContextKey { return a.targetKey }

// Accepts implements core.Agent: the agent wants a turn when all its
// dependency keys hold facts and nothing under the target key carries its
// provenance yet.
func (a *ModelAgent) Accepts(view *core.View) bool {
	for _, key := range a.Dependencies() {
		if !view.Has(key) {
			return false
		}
	}
	for _, f := range view.Facts(a.targetKey) {
		if f.Provenance.Agent == a.Name() {
			return false
		}
	}
	return true
}

// Execute implements core.Agent by drafting proposals from one completion.
func (a *ModelAgent) Execute(ctx context.Context, view *core.View) (core.Effect, error) {
	system, err := a.instruction.Resolve(view)
	if err != nil {
		return core.Effect{}, fmt.Errorf("resolve instruction: %w", err)
	}

	prompt, err := a.buildPrompt(view)
	if err != nil {
		return core.Effect{}, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := a.llm.Complete(ctx, model.Request{System: system, Prompt: prompt})
	if err != nil {
		return core.Effect{}, fmt.Errorf("model %s: %w", a.llm.Info().Name, err)
	}

	return core.Effect{Proposals: a.parseProposals(resp.Content)}, nil
}

// buildPrompt serializes the dependency facts in declaration order. Facts
// appear in commit order, so the prompt for a given view is deterministic.
func (a *ModelAgent) buildPrompt(view *core.View) (string, error) {
	listing := a.factListing(view)

	if a.promptTemplate != "" {
		state := map[string]any{"facts": listing}
		for _, key := range a.Dependencies() {
			contents := make([]string, 0, view.Count(key))
			for _, f := range view.Facts(key) {
				contents = append(contents, f.Content)
			}
			state[string(key)] = strings.Join(contents, "\n")
		}
		return util.RenderTemplate(a.promptTemplate, state)
	}

	var sb strings.Builder
	sb.WriteString("Known facts:\n")
	sb.WriteString(listing)
	fmt.Fprintf(&sb, "\nContribute up to %d new %s, one per line.\n", a.maxProposals, a.targetKey)
	return sb.String(), nil
}

func (a *ModelAgent) factListing(view *core.View) string {
	var sb strings.Builder
	for _, key := range a.Dependencies() {
		for _, f := range view.Facts(key) {
			fmt.Fprintf(&sb, "%s: %s\n", key, f.Content)
		}
	}
	return sb.String()
}

// parseProposals turns a completion into proposals: one per line, bullets
// and numbering stripped, duplicates dropped, capped at maxProposals. Ids
// are content-derived so the same statement always maps to the same fact.
func (a *ModelAgent) parseProposals(content string) []core.ProposedFact {
	seen := make(map[string]struct{})
	var proposals []core.ProposedFact

	for _, line := range strings.Split(content, "\n") {
		line = cleanLine(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}

		proposals = append(proposals, core.ProposedFact{
			Key:     a.targetKey,
			ID:      util.DeterministicID(a.Name(), string(a.targetKey), line),
			Content: line,
		})
		if len(proposals) == a.maxProposals {
			break
		}
	}
	return proposals
}

// cleanLine strips common list decorations models wrap contributions in.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "* ")
	if i := strings.IndexByte(line, '.'); i > 0 && i <= 2 {
		if _, err := strconv.Atoi(line[:i]); err == nil {
			line = line[i+1:]
		}
	}
	return strings.TrimSpace(line)
}
