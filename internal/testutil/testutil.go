// Package testutil provides shared fakes and builders for engine tests:
// scripted agents with injectable behavior and context seeding helpers.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/hupe1980/factmesh/core"
)

// FakeAgent is a scripted core.Agent with injectable function fields,
// keeping tests declarative. Nil AcceptFn means always accept; nil ExecuteFn
// means empty effect. Execution counts are tracked for assertions.
type FakeAgent struct {
	AgentName string
	Deps      []core.ContextKey
	AcceptFn  func(view *core.View) bool
	ExecuteFn func(ctx context.Context, view *core.View) (core.Effect, error)

	mu         sync.Mutex
	executions int
}

// Name implements core.Agent.
func (a *FakeAgent) Name() string { return a.AgentName }

// Dependencies implements core.Agent.
func (a *FakeAgent) Dependencies() []core.ContextKey { return a.Deps }

// Accepts implements core.Agent.
func (a *FakeAgent) Accepts(view *core.View) bool {
	if a.AcceptFn == nil {
		return true
	}
	return a.AcceptFn(view)
}

// Execute implements core.Agent.
func (a *FakeAgent) Execute(ctx context.Context, view *core.View) (core.Effect, error) {
	a.mu.Lock()
	a.executions++
	a.mu.Unlock()
	if a.ExecuteFn == nil {
		return core.Effect{}, nil
	}
	return a.ExecuteFn(ctx, view)
}

// Executions returns how many times Execute ran.
func (a *FakeAgent) Executions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.executions
}

// Emitter builds an agent that contributes the given facts whenever its
// first fact is not yet present. Re-running it hits the idempotent add path,
// so the engine naturally quiesces after one productive cycle.
func Emitter(name string, deps []core.ContextKey, facts ...core.Fact) *FakeAgent {
	return &FakeAgent{
		AgentName: name,
		Deps:      deps,
		AcceptFn: func(view *core.View) bool {
			if len(facts) == 0 {
				return false
			}
			_, present := view.Fact(facts[0].Key, facts[0].ID)
			return !present
		},
		ExecuteFn: func(_ context.Context, _ *core.View) (core.Effect, error) {
			return core.Effect{Facts: facts}, nil
		},
	}
}

// SeededContext builds a context pre-loaded with the given facts.
func SeededContext(t *testing.T, facts ...core.Fact) *core.Context {
	t.Helper()
	c := core.NewContext()
	for _, f := range facts {
		if err := c.Seed(f); err != nil {
			t.Fatalf("seed %s/%s: %v", f.Key, f.ID, err)
		}
	}
	return c
}

// Contents extracts the content strings under key in commit order.
func Contents(c *core.Context, key core.ContextKey) []string {
	facts := c.Get(key)
	out := make([]string, len(facts))
	for i, f := range facts {
		out[i] = f.Content
	}
	return out
}
