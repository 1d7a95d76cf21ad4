package core

// View is the read-only projection of a Context handed to agents. It is built
// once per cycle from a consistent state of the context; agents running in
// parallel within the same cycle all observe the same view regardless of
// merge order.
//
// All accessors return defensive copies, so agents cannot corrupt engine
// state even by mutating returned slices.
type View struct {
	version int
	facts   map[ContextKey][]Fact
	dirty   map[ContextKey]struct{}
}

// Version returns the context version the view was taken at.
func (v *View) Version() int {
	return v.version
}

// Facts returns the facts recorded under key in commit order. The returned
// slice is a copy and may be retained or mutated freely.
func (v *View) Facts(key ContextKey) []Fact {
	src := v.facts[key]
	if len(src) == 0 {
		return nil
	}
	out := make([]Fact, len(src))
	copy(out, src)
	return out
}

// Fact returns the fact stored under (key, id), if any.
func (v *View) Fact(key ContextKey, id string) (Fact, bool) {
	for _, f := range v.facts[key] {
		if f.ID == id {
			return f, true
		}
	}
	return Fact{}, false
}

// Count returns the number of facts recorded under key.
func (v *View) Count(key ContextKey) int {
	return len(v.facts[key])
}

// Total returns the number of facts across all keys.
func (v *View) Total() int {
	n := 0
	for _, fs := range v.facts {
		n += len(fs)
	}
	return n
}

// Dirty reports whether key changed during the previous cycle. Diagnostic
// facts never mark their key dirty, so Dirty(KeyDiagnostic) is always false.
func (v *View) Dirty(key ContextKey) bool {
	_, ok := v.dirty[key]
	return ok
}

// DirtyKeys returns the keys that changed during the previous cycle, in the
// canonical key order.
func (v *View) DirtyKeys() []ContextKey {
	if len(v.dirty) == 0 {
		return nil
	}
	out := make([]ContextKey, 0, len(v.dirty))
	for _, k := range contextKeys {
		if _, ok := v.dirty[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Has reports whether any fact exists under key.
func (v *View) Has(key ContextKey) bool {
	return len(v.facts[key]) > 0
}
