// Package model holds the shared value objects of the impact engine:
// criteria, life-cycle phases, impact values, and assessment records.
package model

import (
	"fmt"
	"strings"
)

// Criterion identifies one environmental-impact indicator.
type Criterion string

const (
	// CriterionGWP is global-warming potential, in kgCO2eq.
	CriterionGWP Criterion = "gwp"
	// CriterionADP is abiotic-resource depletion, in kgSbeq.
	CriterionADP Criterion = "adp"
	// CriterionPE is primary energy, in MJ.
	CriterionPE Criterion = "pe"
)

var criterionUnits = map[Criterion]string{
	CriterionGWP: "kgCO2eq",
	CriterionADP: "kgSbeq",
	CriterionPE:  "MJ",
}

// AllCriteria returns the supported criteria in a stable order.
func AllCriteria() []Criterion {
	return []Criterion{CriterionGWP, CriterionADP, CriterionPE}
}

// Unit returns the presentation unit for the criterion.
func (c Criterion) Unit() string {
	if u, ok := criterionUnits[c]; ok {
		return u
	}
	return "unknown"
}

// ParseCriterion validates a criterion identifier.
func ParseCriterion(s string) (Criterion, error) {
	c := Criterion(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := criterionUnits[c]; !ok {
		return "", fmt.Errorf("unknown criterion %q", s)
	}
	return c, nil
}

// ParseCriteria validates a criteria list, rejecting empty sets.
func ParseCriteria(ss []string) ([]Criterion, error) {
	if len(ss) == 0 {
		return nil, fmt.Errorf("criteria set must not be empty")
	}
	out := make([]Criterion, 0, len(ss))
	for _, s := range ss {
		c, err := ParseCriterion(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Phase is a life-cycle stage of impact.
type Phase string

const (
	// PhaseManufacture covers embodied impact.
	PhaseManufacture Phase = "manufacture"
	// PhaseUse covers operational impact.
	PhaseUse Phase = "use"
)
