package invariant

import (
	"fmt"

	"github.com/hupe1980/factmesh/core"
)

// RuleSpec is the externally authored form of an invariant, typically loaded
// from the YAML config. Rules are authored elsewhere and arrive here already
// shaped as checks over the fact state; Compile only binds them to the
// built-in check types.
type RuleSpec struct {
	// Name overrides the generated check name. Optional.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Type selects the built-in: min_distinct_facts, require_key,
	// max_facts_per_key or non_empty_content.
	Type string `yaml:"type" json:"type"`

	// Class assigns the check class: structural, semantic or acceptance.
	// Defaults per type when empty.
	Class string `yaml:"class,omitempty" json:"class,omitempty"`

	// Key names the context key the rule inspects, where applicable.
	Key string `yaml:"key,omitempty" json:"key,omitempty"`

	// Min and Max parameterize the counting rules.
	Min int `yaml:"min,omitempty" json:"min,omitempty"`
	Max int `yaml:"max,omitempty" json:"max,omitempty"`

	// Authority marks acceptance rules whose violation needs an external
	// decision rather than being a hard failure.
	Authority bool `yaml:"authority,omitempty" json:"authority,omitempty"`
}

// Compile turns rule specs into invariants. It fails on the first spec that
// names an unknown type, class or key, so a bad config surfaces at startup
// rather than mid-run.
func Compile(specs []RuleSpec) ([]core.Invariant, error) {
	out := make([]core.Invariant, 0, len(specs))
	for i, spec := range specs {
		inv, err := compileOne(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, spec.Type, err)
		}
		out = append(out, inv)
	}
	return out, nil
}

func compileOne(spec RuleSpec) (core.Invariant, error) {
	var check *Check

	switch spec.Type {
	case "min_distinct_facts":
		key, err := parseKey(spec.Key)
		if err != nil {
			return nil, err
		}
		if spec.Min < 1 {
			return nil, fmt.Errorf("min must be >= 1, got %d", spec.Min)
		}
		class, err := parseClass(spec.Class, core.ClassAcceptance)
		if err != nil {
			return nil, err
		}
		check = MinDistinctFacts(key, spec.Min, class)

	case "require_key":
		key, err := parseKey(spec.Key)
		if err != nil {
			return nil, err
		}
		class, err := parseClass(spec.Class, core.ClassSemantic)
		if err != nil {
			return nil, err
		}
		check = RequireKey(key, class)

	case "max_facts_per_key":
		key, err := parseKey(spec.Key)
		if err != nil {
			return nil, err
		}
		if spec.Max < 1 {
			return nil, fmt.Errorf("max must be >= 1, got %d", spec.Max)
		}
		if spec.Class != "" && spec.Class != string(core.ClassStructural) {
			return nil, fmt.Errorf("max_facts_per_key is structural, got class %q", spec.Class)
		}
		check = MaxFactsPerKey(key, spec.Max)

	case "non_empty_content":
		if spec.Class != "" && spec.Class != string(core.ClassStructural) {
			return nil, fmt.Errorf("non_empty_content is structural, got class %q", spec.Class)
		}
		check = NonEmptyContent()

	default:
		return nil, fmt.Errorf("unknown rule type %q", spec.Type)
	}

	if spec.Name != "" {
		check.name = spec.Name
	}
	if spec.Authority {
		if check.class != core.ClassAcceptance {
			return nil, fmt.Errorf("authority only applies to acceptance rules")
		}
		check.RequireAuthority()
	}
	return check, nil
}

func parseKey(s string) (core.ContextKey, error) {
	key := core.ContextKey(s)
	if !key.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownKey, s)
	}
	return key, nil
}

func parseClass(s string, fallback core.InvariantClass) (core.InvariantClass, error) {
	if s == "" {
		return fallback, nil
	}
	switch class := core.InvariantClass(s); class {
	case core.ClassStructural, core.ClassSemantic, core.ClassAcceptance:
		return class, nil
	default:
		return "", fmt.Errorf("unknown class %q", s)
	}
}
