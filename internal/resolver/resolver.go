// Package resolver runs the completion pass: it fills every unset
// attribute of a device from archetype defaults, hard-coded fallbacks,
// and derivation rules. It is the only seam between the pure domain
// model and the reference-data collaborators.
package resolver

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/verdant-group/impact-cli/internal/attribute"
	"github.com/verdant-group/impact-cli/internal/device"
	"github.com/verdant-group/impact-cli/internal/interval"
	"github.com/verdant-group/impact-cli/internal/model"
)

// ArchetypeValue is one defaulted attribute from a reference profile.
// Numeric values may carry explicit bounds; categorical values use Text.
type ArchetypeValue struct {
	Num  *float64
	Min  *float64
	Max  *float64
	Text string
}

// Archetype maps attribute names (namespaced as "<component>.<attr>" or
// "usage.<attr>" for device archetypes, bare names for component ones)
// to default values.
type Archetype map[string]ArchetypeValue

// ArchetypeRepository resolves reference default profiles.
type ArchetypeRepository interface {
	// ResolveArchetype returns the named profile for a device or
	// component kind, or *ArchetypeNotFoundError.
	ResolveArchetype(ctx context.Context, kind, archetypeID string) (Archetype, error)
}

// Factor is one external impact-factor datum.
type Factor struct {
	Range  interval.Range
	Source string
}

// FactorProvider resolves published impact factors.
type FactorProvider interface {
	// ComponentFactor returns the per-unit embodied factor for a factor
	// category (component type, or "ssd"/"hdd" for storage media).
	ComponentFactor(ctx context.Context, category string, criterion model.Criterion) (Factor, error)
	// ElectricityFactor returns the electrical-mix factor for a
	// location, or *CountryNotSupportedError.
	ElectricityFactor(ctx context.Context, location string, criterion model.Criterion) (Factor, error)
}

// ConfigProvider exposes the configured computation defaults. The core
// never reads ambient configuration.
type ConfigProvider interface {
	DefaultDuration() float64
	DefaultCriteria() []model.Criterion
	DefaultLocation() string
	SignificantFigures() int
	UncertaintyPercent() float64
}

// Resolver drives attribute completion for devices and standalone
// components.
type Resolver struct {
	archetypes ArchetypeRepository
	cfg        ConfigProvider
}

// New creates a Resolver.
func New(archetypes ArchetypeRepository, cfg ConfigProvider) *Resolver {
	return &Resolver{archetypes: archetypes, cfg: cfg}
}

// Complete fills every unset attribute in the device graph. The pass is
// idempotent: running it again changes nothing, and attributes with
// INPUT or CHANGED provenance are never touched.
func (r *Resolver) Complete(ctx context.Context, d *device.Device) error {
	arch := Archetype{}
	source := ""
	if d.Archetype != "" {
		var err error
		arch, err = r.archetypes.ResolveArchetype(ctx, "server", d.Archetype)
		if err != nil {
			return err
		}
		source = d.Archetype
	}

	uncertainty := r.cfg.UncertaintyPercent()
	for _, c := range d.Components {
		defaults := scopedDefaults(arch, string(c.Type()), source)
		if err := c.Complete(defaults, uncertainty); err != nil {
			return err
		}
	}

	usageDefaults := scopedDefaults(arch, "usage", source)
	if err := d.Usage.Complete(usageDefaults, uncertainty, r.cfg.DefaultLocation()); err != nil {
		return err
	}
	// Completion must be total: without an input, archetype, or
	// configured location the device has no electrical mix to price
	// its use phase against.
	if !d.Usage.Location().Status().Resolved() {
		return &CountryNotSupportedError{}
	}

	// Power draw derives from component specifications, so it runs
	// after every component has completed.
	return d.DerivePower(uncertainty)
}

// CompleteComponent fills a standalone component, resolving defaults
// from the component-kind archetype table when an id is given.
func (r *Resolver) CompleteComponent(ctx context.Context, c *device.Component, archetypeID string) error {
	defaults := device.Defaults{}
	if archetypeID != "" {
		arch, err := r.archetypes.ResolveArchetype(ctx, string(c.Type()), archetypeID)
		if err != nil {
			return err
		}
		defaults = flatDefaults(arch, archetypeID)
	}
	return c.Complete(defaults, r.cfg.UncertaintyPercent())
}

// scopedDefaults extracts the "<scope>."-prefixed entries of a device
// archetype as component defaults.
func scopedDefaults(arch Archetype, scope, source string) device.Defaults {
	out := device.Defaults{}
	prefix := scope + "."
	for key, av := range arch {
		if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		out[key[len(prefix):]] = toDefault(av, source)
	}
	return out
}

func flatDefaults(arch Archetype, source string) device.Defaults {
	out := device.Defaults{}
	for key, av := range arch {
		out[key] = toDefault(av, source)
	}
	return out
}

func toDefault(av ArchetypeValue, source string) device.DefaultValue {
	return device.DefaultValue{
		Num:    av.Num,
		Min:    av.Min,
		Max:    av.Max,
		Text:   av.Text,
		Status: attribute.StatusArchetype,
		Source: source,
	}
}

// RequestDefaults applies the configured fallbacks to a computation
// request: empty criteria sets and zero durations take the configured
// values.
func (r *Resolver) RequestDefaults(criteria []model.Criterion, duration float64) ([]model.Criterion, float64, error) {
	if len(criteria) == 0 {
		criteria = r.cfg.DefaultCriteria()
	}
	if len(criteria) == 0 {
		return nil, 0, eris.New("resolver: no criteria requested and no default configured")
	}
	if duration <= 0 {
		duration = r.cfg.DefaultDuration()
	}
	if duration <= 0 {
		return nil, 0, eris.New("resolver: no duration supplied and no default configured")
	}
	return criteria, duration, nil
}
