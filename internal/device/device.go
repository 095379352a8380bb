package device

import (
	"github.com/rotisserie/eris"

	"github.com/verdant-group/impact-cli/internal/attribute"
	"github.com/verdant-group/impact-cli/internal/interval"
)

// Device is an ordered set of components plus one usage profile. It
// exists for the duration of a single computation.
type Device struct {
	Archetype  string
	Components []*Component
	Usage      *UsageProfile
}

// UsageProfile describes how and where a device is operated.
type UsageProfile struct {
	location     *attribute.TextAttribute
	useTimeRatio *attribute.Attribute // fraction of calendar time powered on
	timeWorkload *attribute.Attribute // average load fraction while on
	avgPower     *attribute.Attribute // watts; derived when not supplied
}

// NewUsageProfile creates an empty usage profile.
func NewUsageProfile() *UsageProfile {
	return &UsageProfile{
		location:     attribute.NewText("location"),
		useTimeRatio: attribute.New("use_time_ratio", attribute.DomainFraction),
		timeWorkload: attribute.New("time_workload", attribute.DomainFraction),
		avgPower:     attribute.New("avg_power", attribute.DomainNonNegative),
	}
}

// Location returns the location attribute.
func (u *UsageProfile) Location() *attribute.TextAttribute { return u.location }

// UseTimeRatio returns the powered-on time fraction attribute.
func (u *UsageProfile) UseTimeRatio() *attribute.Attribute { return u.useTimeRatio }

// TimeWorkload returns the average workload fraction attribute.
func (u *UsageProfile) TimeWorkload() *attribute.Attribute { return u.timeWorkload }

// AvgPower returns the power-draw attribute, in watts.
func (u *UsageProfile) AvgPower() *attribute.Attribute { return u.avgPower }

// Complete fills the usage attributes from archetype defaults, then the
// hard-coded fallbacks. defaultLocation is the configured location used
// when neither input nor archetype names one; empty means no fallback.
// The power-draw derivation runs at the device level, after every
// component has completed, because it reads component specifications.
func (u *UsageProfile) Complete(defaults Defaults, uncertainty float64, defaultLocation string) error {
	if dv, ok := defaults["location"]; ok && dv.Text != "" {
		if err := u.location.Fill(dv.Text, dv.Status, dv.Source); err != nil {
			return err
		}
	}
	for name, a := range map[string]*attribute.Attribute{
		"use_time_ratio": u.useTimeRatio,
		"time_workload":  u.timeWorkload,
		"avg_power":      u.avgPower,
	} {
		dv, ok := defaults[name]
		if !ok || dv.Num == nil {
			continue
		}
		if err := a.FillRange(dv.numRange(uncertainty), dv.Status, dv.Source); err != nil {
			return eris.Wrapf(err, "device: complete usage %s", name)
		}
	}

	if defaultLocation != "" {
		if err := u.location.Fill(defaultLocation, attribute.StatusDefault, "config"); err != nil {
			return err
		}
	}
	if err := u.useTimeRatio.Fill(1.0, attribute.StatusDefault, "default"); err != nil {
		return err
	}
	if err := u.timeWorkload.Fill(0.5, attribute.StatusDefault, "default"); err != nil {
		return err
	}
	return nil
}

// Traces reports the usage attributes' resolved values and provenance.
func (u *UsageProfile) Traces() []Trace {
	out := make([]Trace, 0, 4)
	if v, err := u.location.Value(); err == nil {
		out = append(out, Trace{Scope: "usage", Name: "location", Value: v, Status: string(u.location.Status()), Source: u.location.Source()})
	}
	for _, a := range []*attribute.Attribute{u.useTimeRatio, u.timeWorkload, u.avgPower} {
		tr := Trace{Scope: "usage", Name: a.Name(), Status: string(a.Status()), Source: a.Source()}
		if r, err := a.Range(); err == nil {
			tr.Value, tr.Min, tr.Max = r.Value, r.Min, r.Max
		}
		out = append(out, tr)
	}
	return out
}

// New creates a device with the given archetype tag and an empty usage
// profile.
func New(archetype string) *Device {
	return &Device{Archetype: archetype, Usage: NewUsageProfile()}
}

// Add appends a component.
func (d *Device) Add(c *Component) {
	d.Components = append(d.Components, c)
}

// ComponentsOf returns the components of one type, in order.
func (d *Device) ComponentsOf(typ Type) []*Component {
	var out []*Component
	for _, c := range d.Components {
		if c.typ == typ {
			out = append(out, c)
		}
	}
	return out
}

// DerivePower fills the usage profile's power draw from the completed
// component specifications: processor TDP scaled by workload, plus
// per-module memory and storage draw and a fixed base. It is the one
// completion rule that crosses component boundaries, and like every
// completion it never touches an already-resolved attribute.
func (d *Device) DerivePower(uncertainty float64) error {
	if d.Usage.avgPower.Status().Resolved() {
		return nil
	}

	workload, err := d.Usage.timeWorkload.Value()
	if err != nil {
		return eris.Wrap(err, "device: derive power")
	}

	watts := float64(basePowerWatts)
	for _, c := range d.Components {
		units, err := c.attrs["units"].Value()
		if err != nil {
			return eris.Wrapf(err, "device: derive power from %s", c.id)
		}
		switch c.typ {
		case TypeProcessor:
			tdp, err := c.attrs["tdp"].Value()
			if err != nil {
				return eris.Wrapf(err, "device: derive power from %s", c.id)
			}
			watts += tdp * units * workload
		case TypeMemory:
			watts += memoryWattsPerModule * units
		case TypeStorage:
			st, err := c.texts["storage_type"].Value()
			if err != nil {
				return eris.Wrapf(err, "device: derive power from %s", c.id)
			}
			perUnit := float64(ssdWattsPerUnit)
			if st == "hdd" {
				perUnit = hddWattsPerUnit
			}
			watts += perUnit * units
		}
	}

	r := interval.WithUncertainty(watts, uncertainty)
	return d.Usage.avgPower.FillRange(r, attribute.StatusCompleted, "derived:component_power")
}

// Traces reports provenance for every attribute in the device graph.
func (d *Device) Traces() []Trace {
	var out []Trace
	for _, c := range d.Components {
		out = append(out, c.Traces()...)
	}
	out = append(out, d.Usage.Traces()...)
	return out
}
