package device

import (
	"github.com/verdant-group/impact-cli/internal/attribute"
	"github.com/verdant-group/impact-cli/internal/interval"
)

// Hard-coded numeric fallbacks, applied when neither user input nor an
// archetype supplies a value. Sourced from the published methodology's
// reference server profile.
const (
	defaultUnits         = 1
	defaultCoreUnits     = 24
	defaultDiePerCoreCm2 = 0.25
	defaultTDPWatts      = 100
	defaultMemoryGB      = 32
	defaultStorageGB     = 500
	defaultPSUWeightKg   = 2.99
	defaultStorageType   = "ssd"
	defaultCaseType      = "rack"
	basePowerWatts       = 50 // motherboard, fans, peripherals
	memoryWattsPerModule = 5
	ssdWattsPerUnit      = 5
	hddWattsPerUnit      = 10
)

// Defaults is the mapping of attribute defaults a completion pass
// applies to one component or usage profile. The resolver assembles it
// from an archetype lookup.
type Defaults map[string]DefaultValue

// DefaultValue is one defaulted attribute value with its provenance.
// Num and the optional Min/Max bounds apply to numeric attributes;
// Text applies to categorical ones.
type DefaultValue struct {
	Num    *float64
	Min    *float64
	Max    *float64
	Text   string
	Status attribute.Status
	Source string
}

func (dv DefaultValue) numRange(uncertainty float64) interval.Range {
	v := *dv.Num
	if dv.Min != nil && dv.Max != nil {
		return interval.Range{Value: v, Min: *dv.Min, Max: *dv.Max}
	}
	return interval.WithUncertainty(v, uncertainty)
}

// NewComponent constructs an empty component of the given type with its
// full attribute set and derivation rules.
func NewComponent(typ Type, id string) (*Component, error) {
	units := attribute.New("units", attribute.DomainPositive)
	fixedUnits := derivation{target: "units", kind: deriveFixed, fixed: defaultUnits}

	switch typ {
	case TypeProcessor:
		c, err := newComponent(typ, id,
			[]*attribute.Attribute{
				units,
				attribute.New("core_units", attribute.DomainPositive),
				attribute.New("die_size_per_core", attribute.DomainNonNegative),
				attribute.New("die_size", attribute.DomainNonNegative),
				attribute.New("tdp", attribute.DomainNonNegative),
			},
			nil,
			[]derivation{
				fixedUnits,
				{target: "core_units", kind: deriveFixed, fixed: defaultCoreUnits},
				{target: "die_size_per_core", kind: deriveFixed, fixed: defaultDiePerCoreCm2},
				{target: "tdp", kind: deriveFixed, fixed: defaultTDPWatts},
				{
					target: "die_size",
					kind:   deriveFormula,
					needs:  []string{"core_units", "die_size_per_core"},
					apply: func(args map[string]float64) float64 {
						return args["core_units"] * args["die_size_per_core"]
					},
				},
			},
		)
		return c, err
	case TypeMemory:
		return newComponent(typ, id,
			[]*attribute.Attribute{
				units,
				attribute.New("capacity_gb", attribute.DomainNonNegative),
			},
			nil,
			[]derivation{
				fixedUnits,
				{target: "capacity_gb", kind: deriveFixed, fixed: defaultMemoryGB},
			},
		)
	case TypeStorage:
		c, err := newComponent(typ, id,
			[]*attribute.Attribute{
				units,
				attribute.New("capacity_gb", attribute.DomainNonNegative),
			},
			[]*attribute.TextAttribute{
				attribute.NewText("storage_type"),
			},
			[]derivation{
				fixedUnits,
				{target: "capacity_gb", kind: deriveFixed, fixed: defaultStorageGB},
			},
		)
		if err != nil {
			return nil, err
		}
		c.textFixed = map[string]string{"storage_type": defaultStorageType}
		return c, nil
	case TypePowerSupply:
		return newComponent(typ, id,
			[]*attribute.Attribute{
				units,
				attribute.New("unit_weight_kg", attribute.DomainPositive),
			},
			nil,
			[]derivation{
				fixedUnits,
				{target: "unit_weight_kg", kind: deriveFixed, fixed: defaultPSUWeightKg},
			},
		)
	case TypeEnclosure:
		c, err := newComponent(typ, id,
			[]*attribute.Attribute{units},
			[]*attribute.TextAttribute{attribute.NewText("case_type")},
			[]derivation{fixedUnits},
		)
		if err != nil {
			return nil, err
		}
		c.textFixed = map[string]string{"case_type": defaultCaseType}
		return c, nil
	case TypeMotherboard, TypeAssembly:
		return newComponent(typ, id,
			[]*attribute.Attribute{units},
			nil,
			[]derivation{fixedUnits},
		)
	default:
		_, err := ParseType(string(typ))
		return nil, err
	}
}
