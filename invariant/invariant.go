// Package invariant provides named checks over the fact state plus the
// compilation path that turns externally authored rule specs into checks.
// Checks are classified by when they run: structural checks gate every
// commit, semantic checks gate convergence per cycle, acceptance checks gate
// the final converged transition.
package invariant

import (
	"fmt"
	"strings"

	"github.com/hupe1980/factmesh/core"
)

// Check is the standard core.Invariant implementation: a named predicate
// whose function returns an empty string when the invariant holds or a
// violation detail when it does not.
type Check struct {
	name      string
	class     core.InvariantClass
	authority bool
	fn        func(view *core.View) string
}

// New creates a check. The function returns "" when the invariant holds.
func New(name string, class core.InvariantClass, fn func(view *core.View) string) *Check {
	return &Check{name: name, class: class, fn: fn}
}

// RequireAuthority marks violations of this check as resolvable only by an
// external authority. Meaningful for acceptance checks, where it downgrades
// the halt to AwaitingAuthority instead of InvariantViolation.
func (c *Check) RequireAuthority() *Check {
	c.authority = true
	return c
}

// Name implements core.Invariant.
func (c *Check) Name() string { return c.name }

// Class implements core.Invariant.
func (c *Check) Class() core.InvariantClass { return c.class }

// Check implements core.Invariant.
func (c *Check) Check(view *core.View) *core.Violation {
	detail := c.fn(view)
	if detail == "" {
		return nil
	}
	return &core.Violation{Invariant: c.name, Class: c.class, Detail: detail, Authority: c.authority}
}

// MinDistinctFacts requires at least min facts with distinct content under
// key. Restating the same content under different ids does not count twice.
func MinDistinctFacts(key core.ContextKey, min int, class core.InvariantClass) *Check {
	name := fmt.Sprintf("min_distinct_%s", key)
	return New(name, class, func(view *core.View) string {
		distinct := make(map[string]struct{})
		for _, f := range view.Facts(key) {
			distinct[f.Content] = struct{}{}
		}
		if len(distinct) < min {
			return fmt.Sprintf("key %s has %d distinct fact(s), need at least %d", key, len(distinct), min)
		}
		return ""
	})
}

// RequireKey requires at least one fact under key.
func RequireKey(key core.ContextKey, class core.InvariantClass) *Check {
	name := fmt.Sprintf("require_%s", key)
	return New(name, class, func(view *core.View) string {
		if !view.Has(key) {
			return fmt.Sprintf("key %s holds no facts", key)
		}
		return ""
	})
}

// MaxFactsPerKey caps how many facts a key may accumulate. Typically
// structural, turning a runaway producer into a clean halt.
func MaxFactsPerKey(key core.ContextKey, max int) *Check {
	name := fmt.Sprintf("max_facts_%s", key)
	return New(name, core.ClassStructural, func(view *core.View) string {
		if n := view.Count(key); n > max {
			return fmt.Sprintf("key %s holds %d facts, cap is %d", key, n, max)
		}
		return ""
	})
}

// NonEmptyContent rejects facts whose content is empty or whitespace. The
// proposal pipeline already enforces this for proposals; as a structural
// check it covers directly emitted facts too.
func NonEmptyContent() *Check {
	return New("non_empty_content", core.ClassStructural, func(view *core.View) string {
		for _, key := range core.Keys() {
			for _, f := range view.Facts(key) {
				if strings.TrimSpace(f.Content) == "" {
					return fmt.Sprintf("fact (%s, %s) has empty content", key, f.ID)
				}
			}
		}
		return ""
	})
}
