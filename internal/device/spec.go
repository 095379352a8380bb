package device

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Spec is the external device description: only the attributes the
// caller actually knows are present, everything else is resolved during
// completion.
type Spec struct {
	Archetype   string          `yaml:"archetype" json:"archetype,omitempty"`
	Processor   *ComponentSpec  `yaml:"processor" json:"processor,omitempty"`
	Memory      []ComponentSpec `yaml:"memory" json:"memory,omitempty"`
	Storage     []ComponentSpec `yaml:"storage" json:"storage,omitempty"`
	PowerSupply *ComponentSpec  `yaml:"power_supply" json:"power_supply,omitempty"`
	Enclosure   *ComponentSpec  `yaml:"enclosure" json:"enclosure,omitempty"`
	Usage       *UsageSpec      `yaml:"usage" json:"usage,omitempty"`
}

// ComponentSpec maps attribute names to supplied values (numbers or
// strings).
type ComponentSpec map[string]any

// UsageSpec is the external usage description.
type UsageSpec struct {
	Location      string   `yaml:"location" json:"location,omitempty"`
	UseTimeRatio  *float64 `yaml:"use_time_ratio" json:"use_time_ratio,omitempty"`
	TimeWorkload  *float64 `yaml:"time_workload" json:"time_workload,omitempty"`
	AvgPowerWatts *float64 `yaml:"avg_power_watts" json:"avg_power_watts,omitempty"`
}

// FromSpec builds a partially-specified server device. Every component
// type is present even when the spec omits it, so that completion can
// default the full bill of materials; memory and storage may repeat.
func FromSpec(s Spec) (*Device, error) {
	d := New(s.Archetype)

	add := func(typ Type, id string, cs ComponentSpec) error {
		c, err := NewComponent(typ, id)
		if err != nil {
			return err
		}
		for name, value := range cs {
			if err := c.SetInput(name, value); err != nil {
				return eris.Wrapf(err, "device: spec %s", id)
			}
		}
		d.Add(c)
		return nil
	}

	single := func(typ Type, cs *ComponentSpec) error {
		var m ComponentSpec
		if cs != nil {
			m = *cs
		}
		return add(typ, string(typ), m)
	}

	if err := single(TypeProcessor, s.Processor); err != nil {
		return nil, err
	}
	if err := addRepeated(add, TypeMemory, s.Memory); err != nil {
		return nil, err
	}
	if err := addRepeated(add, TypeStorage, s.Storage); err != nil {
		return nil, err
	}
	if err := single(TypePowerSupply, s.PowerSupply); err != nil {
		return nil, err
	}
	if err := single(TypeEnclosure, s.Enclosure); err != nil {
		return nil, err
	}
	if err := single(TypeMotherboard, nil); err != nil {
		return nil, err
	}
	if err := single(TypeAssembly, nil); err != nil {
		return nil, err
	}

	if err := applyUsage(d, s.Usage); err != nil {
		return nil, err
	}
	return d, nil
}

func addRepeated(add func(Type, string, ComponentSpec) error, typ Type, specs []ComponentSpec) error {
	if len(specs) == 0 {
		return add(typ, string(typ), nil)
	}
	for i, cs := range specs {
		if err := add(typ, indexedID(typ, i, len(specs)), cs); err != nil {
			return err
		}
	}
	return nil
}

func indexedID(typ Type, i, n int) string {
	if n == 1 {
		return string(typ)
	}
	return fmt.Sprintf("%s[%d]", typ, i)
}

func applyUsage(d *Device, us *UsageSpec) error {
	if us == nil {
		return nil
	}
	u := d.Usage
	if us.Location != "" {
		if err := u.Location().SetInput(us.Location); err != nil {
			return err
		}
	}
	if us.UseTimeRatio != nil {
		if err := u.UseTimeRatio().SetInput(*us.UseTimeRatio); err != nil {
			return err
		}
	}
	if us.TimeWorkload != nil {
		if err := u.TimeWorkload().SetInput(*us.TimeWorkload); err != nil {
			return err
		}
	}
	if us.AvgPowerWatts != nil {
		if err := u.AvgPower().SetInput(*us.AvgPowerWatts); err != nil {
			return err
		}
	}
	return nil
}

// ComponentFromSpec builds a standalone component for single-component
// assessment.
func ComponentFromSpec(typ Type, cs ComponentSpec) (*Component, error) {
	c, err := NewComponent(typ, string(typ))
	if err != nil {
		return nil, err
	}
	for name, value := range cs {
		if err := c.SetInput(name, value); err != nil {
			return nil, eris.Wrapf(err, "device: spec %s", typ)
		}
	}
	return c, nil
}
