// Package device models hardware: typed components bundling attributes,
// the derivation rules that fill them, and the device graph that one
// computation operates on. Entities here never perform lookups; the
// resolver fetches reference data and passes it in.
package device

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/verdant-group/impact-cli/internal/attribute"
	"github.com/verdant-group/impact-cli/internal/interval"
)

// Type identifies a component kind, which fixes its attribute set and
// embodied-impact formula.
type Type string

const (
	TypeProcessor   Type = "processor"
	TypeMemory      Type = "memory"
	TypeStorage     Type = "storage"
	TypeMotherboard Type = "motherboard"
	TypePowerSupply Type = "power_supply"
	TypeEnclosure   Type = "enclosure"
	TypeAssembly    Type = "assembly"
)

// AllTypes returns the supported component types in a stable order.
func AllTypes() []Type {
	return []Type{
		TypeProcessor, TypeMemory, TypeStorage, TypeMotherboard,
		TypePowerSupply, TypeEnclosure, TypeAssembly,
	}
}

// ParseType validates a component type identifier.
func ParseType(s string) (Type, error) {
	t := Type(s)
	for _, known := range AllTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", eris.Errorf("device: unknown component type %q", s)
}

// derivationKind is the closed set of strategies for resolving an
// attribute the archetype pass left unset.
type derivationKind int

const (
	deriveFixed derivationKind = iota
	deriveFormula
)

// derivation resolves one target attribute. A fixed derivation assigns
// the hard-coded fallback; a formula derivation computes the value from
// already-resolved siblings named in needs.
type derivation struct {
	target string
	kind   derivationKind
	fixed  float64
	needs  []string
	apply  func(args map[string]float64) float64
}

// Component is a named bundle of attributes describing one hardware
// part. It is mutated only during completion and treated as immutable
// once aggregation starts.
type Component struct {
	typ    Type
	id     string
	attrs  map[string]*attribute.Attribute
	texts  map[string]*attribute.TextAttribute
	derivs []derivation // dependency-ordered
	order  []string     // attribute names, declaration order

	// hard-coded fallbacks for categorical attributes
	textFixed map[string]string
}

func newComponent(typ Type, id string, attrs []*attribute.Attribute, texts []*attribute.TextAttribute, derivs []derivation) (*Component, error) {
	c := &Component{
		typ:   typ,
		id:    id,
		attrs: make(map[string]*attribute.Attribute, len(attrs)),
		texts: make(map[string]*attribute.TextAttribute, len(texts)),
	}
	for _, a := range attrs {
		c.attrs[a.Name()] = a
		c.order = append(c.order, a.Name())
	}
	for _, t := range texts {
		c.texts[t.Name()] = t
	}
	ordered, err := orderDerivations(id, derivs)
	if err != nil {
		return nil, err
	}
	c.derivs = ordered
	return c, nil
}

// orderDerivations topologically sorts derivations by their sibling
// dependencies. A dependency cycle is a construction-time defect.
func orderDerivations(componentID string, derivs []derivation) ([]derivation, error) {
	byTarget := make(map[string]derivation, len(derivs))
	for _, d := range derivs {
		byTarget[d.target] = d
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(derivs))
	var ordered []derivation

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		d, ok := byTarget[name]
		if !ok {
			return nil // plain attribute, resolved before formulas run
		}
		// Each frame gets its own copy of the path so sibling visits
		// never share a backing array.
		next := make([]string, len(path)+1)
		copy(next, path)
		next[len(path)] = name

		switch state[name] {
		case done:
			return nil
		case visiting:
			return &CyclicCompletionError{ComponentID: componentID, Cycle: next}
		}
		state[name] = visiting
		for _, need := range d.needs {
			if err := visit(need, next); err != nil {
				return err
			}
		}
		state[name] = done
		ordered = append(ordered, d)
		return nil
	}

	for _, d := range derivs {
		if err := visit(d.target, nil); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// Type returns the component type.
func (c *Component) Type() Type { return c.typ }

// ID returns the component identifier within its device, e.g. "memory[1]".
func (c *Component) ID() string { return c.id }

// Attr returns the named numeric attribute, or nil.
func (c *Component) Attr(name string) *attribute.Attribute { return c.attrs[name] }

// Text returns the named categorical attribute, or nil.
func (c *Component) Text(name string) *attribute.TextAttribute { return c.texts[name] }

// SetInput applies explicitly supplied attribute values.
func (c *Component) SetInput(name string, value any) error {
	if a, ok := c.attrs[name]; ok {
		f, err := toFloat(value)
		if err != nil {
			return &attribute.InvalidValueError{Name: name, Reason: err.Error()}
		}
		return a.SetInput(f)
	}
	if t, ok := c.texts[name]; ok {
		s, ok := value.(string)
		if !ok {
			return &attribute.InvalidValueError{Name: name, Reason: fmt.Sprintf("expected string, got %T", value)}
		}
		return t.SetInput(s)
	}
	return eris.Errorf("device: %s has no attribute %q", c.id, name)
}

// Complete fills every owned attribute: archetype defaults first, then
// the per-attribute derivations in dependency order. Already-resolved
// attributes are left alone, so the pass is idempotent. uncertainty is
// the percentage applied to values arriving without explicit bounds.
func (c *Component) Complete(defaults Defaults, uncertainty float64) error {
	// Archetype pass.
	for name, a := range c.attrs {
		dv, ok := defaults[name]
		if !ok || dv.Num == nil {
			continue
		}
		r := dv.numRange(uncertainty)
		if err := a.FillRange(r, dv.Status, dv.Source); err != nil {
			return eris.Wrapf(err, "device: complete %s", c.id)
		}
	}
	for name, t := range c.texts {
		dv, ok := defaults[name]
		if !ok || dv.Text == "" {
			continue
		}
		if err := t.Fill(dv.Text, dv.Status, dv.Source); err != nil {
			return eris.Wrapf(err, "device: complete %s", c.id)
		}
	}

	// Hard-coded categorical fallbacks.
	for name, fallback := range c.textFixed {
		t := c.texts[name]
		if t == nil || t.Status().Resolved() {
			continue
		}
		if err := t.Fill(fallback, attribute.StatusDefault, "default"); err != nil {
			return eris.Wrapf(err, "device: complete %s", c.id)
		}
	}

	// Derivation pass.
	for _, d := range c.derivs {
		a, ok := c.attrs[d.target]
		if !ok || a.Status().Resolved() {
			continue
		}
		switch d.kind {
		case deriveFixed:
			r := interval.WithUncertainty(d.fixed, uncertainty)
			if err := a.FillRange(r, attribute.StatusDefault, "default"); err != nil {
				return eris.Wrapf(err, "device: complete %s", c.id)
			}
		case deriveFormula:
			args := make(map[string]float64, len(d.needs))
			for _, need := range d.needs {
				na, ok := c.attrs[need]
				if !ok {
					return eris.Errorf("device: complete %s: derive %s: unknown dependency %q", c.id, d.target, need)
				}
				v, err := na.Value()
				if err != nil {
					return eris.Wrapf(err, "device: complete %s: derive %s", c.id, d.target)
				}
				args[need] = v
			}
			r := interval.WithUncertainty(d.apply(args), uncertainty)
			if err := a.FillRange(r, attribute.StatusCompleted, "derived:"+d.target); err != nil {
				return eris.Wrapf(err, "device: complete %s", c.id)
			}
		}
	}

	// Completion must be total.
	for name, a := range c.attrs {
		if !a.Status().Resolved() {
			return eris.Wrapf(&attribute.IncompleteAttributeError{Name: name}, "device: complete %s", c.id)
		}
	}
	for name, t := range c.texts {
		if !t.Status().Resolved() {
			return eris.Wrapf(&attribute.IncompleteAttributeError{Name: name}, "device: complete %s", c.id)
		}
	}
	return nil
}

// Need is the manufacture-phase factor demand of a component: the
// interval quantity to multiply by the per-unit impact factor, and the
// factor table category to look the factor up under.
type Need struct {
	Quantity  interval.Range
	FactorKey string
}

// ManufactureNeed evaluates the component-type-specific embodied-impact
// quantity from the resolved attributes.
func (c *Component) ManufactureNeed() (Need, error) {
	units, err := c.attrs["units"].Range()
	if err != nil {
		return Need{}, err
	}
	switch c.typ {
	case TypeProcessor:
		die, err := c.attrs["die_size"].Range()
		if err != nil {
			return Need{}, err
		}
		qty, err := units.Mul(die)
		if err != nil {
			return Need{}, err
		}
		return Need{Quantity: qty, FactorKey: string(TypeProcessor)}, nil
	case TypeMemory, TypeStorage:
		capacity, err := c.attrs["capacity_gb"].Range()
		if err != nil {
			return Need{}, err
		}
		qty, err := units.Mul(capacity)
		if err != nil {
			return Need{}, err
		}
		key := string(c.typ)
		if c.typ == TypeStorage {
			st, err := c.texts["storage_type"].Value()
			if err != nil {
				return Need{}, err
			}
			key = st // "ssd" or "hdd"
		}
		return Need{Quantity: qty, FactorKey: key}, nil
	case TypePowerSupply:
		weight, err := c.attrs["unit_weight_kg"].Range()
		if err != nil {
			return Need{}, err
		}
		qty, err := units.Mul(weight)
		if err != nil {
			return Need{}, err
		}
		return Need{Quantity: qty, FactorKey: string(TypePowerSupply)}, nil
	default:
		return Need{Quantity: units, FactorKey: string(c.typ)}, nil
	}
}

// Traces reports every attribute's resolved value and provenance.
func (c *Component) Traces() []Trace {
	var out []Trace
	for _, name := range c.order {
		a := c.attrs[name]
		tr := Trace{Scope: c.id, Name: name, Status: string(a.Status()), Source: a.Source()}
		if r, err := a.Range(); err == nil {
			tr.Value, tr.Min, tr.Max = r.Value, r.Min, r.Max
		}
		out = append(out, tr)
	}
	for name, t := range c.texts {
		tr := Trace{Scope: c.id, Name: name, Status: string(t.Status()), Source: t.Source()}
		if v, err := t.Value(); err == nil {
			tr.Value = v
		}
		out = append(out, tr)
	}
	return out
}

// Trace mirrors model.AttributeTrace without importing it, keeping the
// device package dependency-free below attribute/interval.
type Trace struct {
	Scope  string
	Name   string
	Value  any
	Min    any
	Max    any
	Status string
	Source string
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
