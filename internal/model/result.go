package model

// ImpactValue is a single rounded impact figure with its uncertainty bounds.
type ImpactValue struct {
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Unit  string  `json:"unit"`
}

// PhaseImpact maps criterion to impact value within one life-cycle phase.
type PhaseImpact map[Criterion]ImpactValue

// AttributeTrace records the resolved value and provenance of one
// attribute, emitted when verbose output is requested.
type AttributeTrace struct {
	Scope  string `json:"scope"` // component id or "usage"
	Name   string `json:"name"`
	Value  any    `json:"value"`
	Min    any    `json:"min,omitempty"`
	Max    any    `json:"max,omitempty"`
	Status string `json:"status"`
	Source string `json:"source,omitempty"`
}

// ImpactResult is the final, phase-broken-down output of one computation.
type ImpactResult struct {
	Phases map[Phase]PhaseImpact `json:"impacts"`
	Totals PhaseImpact           `json:"totals"`
	Trace  []AttributeTrace      `json:"verbose,omitempty"`
}

// Phase returns the impact for one phase and criterion, if present.
func (r *ImpactResult) Phase(p Phase, c Criterion) (ImpactValue, bool) {
	pi, ok := r.Phases[p]
	if !ok {
		return ImpactValue{}, false
	}
	v, ok := pi[c]
	return v, ok
}
