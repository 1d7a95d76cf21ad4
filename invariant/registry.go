package invariant

import "github.com/hupe1980/factmesh/core"

// Registry groups invariants by class so the engine can consult exactly the
// checks a lifecycle point needs. It is not safe for concurrent mutation;
// build it fully before handing it to an engine.
type Registry struct {
	byClass map[core.InvariantClass][]core.Invariant
}

// NewRegistry creates a registry holding the given invariants.
func NewRegistry(invs ...core.Invariant) *Registry {
	r := &Registry{byClass: make(map[core.InvariantClass][]core.Invariant)}
	for _, inv := range invs {
		r.Add(inv)
	}
	return r
}

// Add registers an invariant under its class.
func (r *Registry) Add(inv core.Invariant) {
	r.byClass[inv.Class()] = append(r.byClass[inv.Class()], inv)
}

// ByClass returns the invariants of one class in registration order.
func (r *Registry) ByClass(class core.InvariantClass) []core.Invariant {
	src := r.byClass[class]
	if len(src) == 0 {
		return nil
	}
	out := make([]core.Invariant, len(src))
	copy(out, src)
	return out
}

// Len returns the total number of registered invariants.
func (r *Registry) Len() int {
	n := 0
	for _, invs := range r.byClass {
		n += len(invs)
	}
	return n
}

// CheckAll runs every invariant of the class against the view and returns
// the violations in registration order.
func (r *Registry) CheckAll(class core.InvariantClass, view *core.View) []*core.Violation {
	var out []*core.Violation
	for _, inv := range r.byClass[class] {
		if v := inv.Check(view); v != nil {
			out = append(out, v)
		}
	}
	return out
}
