package core

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Context is the shared fact store for a single run. It holds an ordered,
// append-only fact sequence per key, a monotonic version counter and the set
// of keys dirtied by the most recent merge pass. It is safe for concurrent
// reads; mutation is reserved to the engine goroutine.
//
// Contract:
//   - Facts are append-only: a committed fact is never removed or rewritten.
//   - Re-adding an identical (key, id, content) triple is a silent no-op.
//   - Adding a different content under an existing (key, id) fails with
//     *ConflictError and leaves the context unchanged.
//   - The version increases by exactly one for every committed fact,
//     including seeds and diagnostics.
//   - The dirty set reflects only the current merge pass; ClearDirty resets
//     it at each cycle boundary. Diagnostic facts never mark their key dirty.
//   - Get and Snapshot return defensive copies to avoid external mutation.
type Context struct {
	facts   map[ContextKey][]Fact
	index   map[ContextKey]map[string]int
	dirty   map[ContextKey]struct{}
	version int
	mu      sync.RWMutex
}

// NewContext creates an empty context at version 0.
func NewContext() *Context {
	return &Context{
		facts: make(map[ContextKey][]Fact),
		index: make(map[ContextKey]map[string]int),
		dirty: make(map[ContextKey]struct{}),
	}
}

// Seed commits a fact before the run starts. It goes through the same path
// as engine merges, so idempotency and conflict rules apply and the fact's
// key becomes dirty for the first cycle. A seed with no provenance agent is
// stamped with ProvenanceSeed.
func (c *Context) Seed(f Fact) error {
	if f.Provenance.Agent == "" {
		f.Provenance.Agent = ProvenanceSeed
	}
	return c.AddFact(f)
}

// AddFact commits a single fact. It is the engine's mutation path; agents
// must return facts through their Effect instead of calling this directly.
//
// Identical duplicates are silently dropped. A (key, id) collision with
// different content returns *ConflictError with both contents attached.
func (c *Context) AddFact(f Fact) error {
	if !f.Key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKey, string(f.Key))
	}
	if f.ID == "" {
		return ErrEmptyFactID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if pos, ok := c.index[f.Key][f.ID]; ok {
		existing := c.facts[f.Key][pos]
		if existing.Content == f.Content {
			return nil
		}
		return &ConflictError{Key: f.Key, ID: f.ID, Existing: existing.Content, Incoming: f.Content}
	}

	if c.index[f.Key] == nil {
		c.index[f.Key] = make(map[string]int)
	}
	c.index[f.Key][f.ID] = len(c.facts[f.Key])
	c.facts[f.Key] = append(c.facts[f.Key], f)
	c.version++
	if f.Key != KeyDiagnostic {
		c.dirty[f.Key] = struct{}{}
	}
	return nil
}

// ClearDirty resets the dirty set at a cycle boundary, after the engine has
// captured the view the next eligibility pass will use.
func (c *Context) ClearDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = make(map[ContextKey]struct{})
}

// Has reports whether any fact exists under key.
func (c *Context) Has(key ContextKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.facts[key]) > 0
}

// Get returns the facts recorded under key in commit order. The result is a
// defensive copy; an unpopulated key yields an empty slice, never an error.
func (c *Context) Get(key ContextKey) []Fact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Fact, len(c.facts[key]))
	copy(out, c.facts[key])
	return out
}

// Len returns the total number of committed facts across all keys.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, fs := range c.facts {
		n += len(fs)
	}
	return n
}

// Version returns the number of facts ever committed.
func (c *Context) Version() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// DirtyKeys returns the keys dirtied by the current merge pass in canonical
// key order.
func (c *Context) DirtyKeys() []ContextKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.dirty) == 0 {
		return nil
	}
	out := make([]ContextKey, 0, len(c.dirty))
	for _, k := range contextKeys {
		if _, ok := c.dirty[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Snapshot captures an immutable read view of the current state, including
// the dirty set of the merge pass that just completed. Agents of one cycle
// all receive the same snapshot.
func (c *Context) Snapshot() *View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	facts := make(map[ContextKey][]Fact, len(c.facts))
	for k, fs := range c.facts {
		cp := make([]Fact, len(fs))
		copy(cp, fs)
		facts[k] = cp
	}
	dirty := make(map[ContextKey]struct{}, len(c.dirty))
	for k := range c.dirty {
		dirty[k] = struct{}{}
	}
	return &View{version: c.version, facts: facts, dirty: dirty}
}

// contextJSON is the persisted shape: facts per key in commit order plus the
// version counter. Dirty keys are transient and recomputed after load.
type contextJSON struct {
	Version int                   `json:"version"`
	Facts   map[ContextKey][]Fact `json:"facts"`
}

// MarshalJSON implements json.Marshaler.
func (c *Context) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(contextJSON{Version: c.version, Facts: c.facts})
}

// UnmarshalJSON implements json.Unmarshaler. The fact index is rebuilt and
// the dirty set starts empty; resume dirtiness comes from the injected
// authority fact, not from persisted state.
func (c *Context) UnmarshalJSON(data []byte) error {
	var cj contextJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = cj.Version
	c.facts = make(map[ContextKey][]Fact, len(cj.Facts))
	c.index = make(map[ContextKey]map[string]int, len(cj.Facts))
	c.dirty = make(map[ContextKey]struct{})
	for k, fs := range cj.Facts {
		if !k.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownKey, string(k))
		}
		c.facts[k] = fs
		idx := make(map[string]int, len(fs))
		for i, f := range fs {
			idx[f.ID] = i
		}
		c.index[k] = idx
	}
	return nil
}
