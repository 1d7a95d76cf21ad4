package engine

import (
	"sort"

	"github.com/hupe1980/factmesh/core"
)

// eligibleAgents computes the execution set for one cycle.
//
// Candidates are the agents whose declared dependencies intersect the dirty
// keys of the previous cycle, plus every agent that declares no dependencies
// at all. On the bootstrap cycle of a fresh run the candidate set is the
// whole registry, so agents get one chance to react to seeded state they
// did not declare.
//
// Every candidate is then filtered through a fresh Accepts call against the
// cycle view. The result is sorted ascending by agent ID.
//
// The computation reads immutable inputs only; it never mutates the context
// or the registry, and calling it twice with the same view yields the same
// set.
func (e *Engine) eligibleAgents(view *core.View, bootstrap bool) []core.AgentID {
	e.mu.RLock()
	defer e.mu.RUnlock()

	candidates := make(map[core.AgentID]struct{})
	if bootstrap {
		for i := range e.agents {
			candidates[core.AgentID(i)] = struct{}{}
		}
	} else {
		for _, key := range view.DirtyKeys() {
			for _, id := range e.depIndex[key] {
				candidates[id] = struct{}{}
			}
		}
		for _, id := range e.always {
			candidates[id] = struct{}{}
		}
	}

	ids := make([]core.AgentID, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// Accepts runs in ID order so the filter sequence is reproducible too.
	eligible := make([]core.AgentID, 0, len(ids))
	for _, id := range ids {
		if e.agents[id].Accepts(view) {
			eligible = append(eligible, id)
		}
	}
	return eligible
}

// agentByID returns the agent registered under id. The registry is frozen
// during runs, so the reference stays valid for the whole cycle.
func (e *Engine) agentByID(id core.AgentID) core.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.agents[id]
}
