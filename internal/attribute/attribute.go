// Package attribute implements the provenance-tracked value primitive.
// Every figure that flows through a computation is an Attribute: it may
// be unset, explicitly supplied, filled from a reference profile, or
// derived, and it always knows where its value came from.
package attribute

import (
	"github.com/verdant-group/impact-cli/internal/interval"
)

// Status is the provenance state of an attribute.
type Status string

const (
	StatusUnset     Status = "UNSET"
	StatusInput     Status = "INPUT"     // explicitly supplied
	StatusArchetype Status = "ARCHETYPE" // filled from a reference profile
	StatusDefault   Status = "DEFAULT"   // hard-coded fallback
	StatusCompleted Status = "COMPLETED" // derived from sibling attributes
	StatusChanged   Status = "CHANGED"   // previously resolved, then overwritten
)

// Resolved reports whether the attribute carries a usable value.
func (s Status) Resolved() bool { return s != StatusUnset }

// Terminal reports whether a completion pass must leave the value alone.
func (s Status) Terminal() bool { return s == StatusInput || s == StatusChanged }

// Domain is the closed set of value constraints an attribute may declare.
type Domain int

const (
	DomainAny Domain = iota
	DomainNonNegative
	DomainPositive
	DomainFraction // [0, 1]
)

// Check validates v against the domain.
func (d Domain) Check(name string, v float64) error {
	switch d {
	case DomainNonNegative:
		if v < 0 {
			return &InvalidValueError{Name: name, Value: v, Reason: "must not be negative"}
		}
	case DomainPositive:
		if v <= 0 {
			return &InvalidValueError{Name: name, Value: v, Reason: "must be positive"}
		}
	case DomainFraction:
		if v < 0 || v > 1 {
			return &InvalidValueError{Name: name, Value: v, Reason: "must be between 0 and 1"}
		}
	}
	return nil
}

// Attribute is a numeric value with uncertainty bounds and provenance.
// The invariant Min <= Value <= Max holds whenever the attribute is
// resolved.
type Attribute struct {
	name   string
	domain Domain
	value  float64
	min    float64
	max    float64
	status Status
	source string
}

// New creates an unset attribute.
func New(name string, domain Domain) *Attribute {
	return &Attribute{name: name, domain: domain, status: StatusUnset}
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// Status returns the current provenance state.
func (a *Attribute) Status() Status { return a.status }

// Source returns the provenance label of the current value.
func (a *Attribute) Source() string { return a.source }

// SetInput records an explicitly supplied value. The bounds collapse to
// the value itself: measured inputs carry no modeled uncertainty.
func (a *Attribute) SetInput(v float64) error {
	if err := a.domain.Check(a.name, v); err != nil {
		return err
	}
	a.value, a.min, a.max = v, v, v
	a.status = StatusInput
	a.source = "user"
	return nil
}

// Fill records a completion-pass value with the given provenance. It is
// a no-op when the attribute is already resolved, which makes completion
// idempotent and guarantees INPUT/CHANGED values are never clobbered.
func (a *Attribute) Fill(v float64, st Status, source string) error {
	return a.FillRange(interval.Exact(v), st, source)
}

// FillRange is Fill with explicit bounds.
func (a *Attribute) FillRange(r interval.Range, st Status, source string) error {
	if a.status.Resolved() {
		return nil
	}
	if st == StatusUnset || st.Terminal() {
		return &InvalidValueError{Name: a.name, Value: r.Value, Reason: "completion cannot assign status " + string(st)}
	}
	if err := a.domain.Check(a.name, r.Value); err != nil {
		return err
	}
	if !r.Valid() {
		return &InvalidValueError{Name: a.name, Value: r.Value, Reason: "bounds do not bracket value"}
	}
	a.value, a.min, a.max = r.Value, r.Min, r.Max
	a.status = st
	a.source = source
	return nil
}

// Overwrite replaces the value regardless of current status and marks
// the attribute CHANGED, which excludes it from later completion passes.
func (a *Attribute) Overwrite(v float64) error {
	if err := a.domain.Check(a.name, v); err != nil {
		return err
	}
	a.value, a.min, a.max = v, v, v
	a.status = StatusChanged
	a.source = "overwrite"
	return nil
}

// Value returns the resolved value. Reading an unset attribute is an
// internal-invariant violation surfaced as IncompleteAttributeError.
func (a *Attribute) Value() (float64, error) {
	if !a.status.Resolved() {
		return 0, &IncompleteAttributeError{Name: a.name}
	}
	return a.value, nil
}

// Range returns the resolved value with its bounds.
func (a *Attribute) Range() (interval.Range, error) {
	if !a.status.Resolved() {
		return interval.Range{}, &IncompleteAttributeError{Name: a.name}
	}
	return interval.Range{Value: a.value, Min: a.min, Max: a.max}, nil
}

// TextAttribute is the categorical counterpart of Attribute. It follows
// the same status machine but carries no bounds.
type TextAttribute struct {
	name   string
	value  string
	status Status
	source string
}

// NewText creates an unset categorical attribute.
func NewText(name string) *TextAttribute {
	return &TextAttribute{name: name, status: StatusUnset}
}

// Name returns the attribute name.
func (t *TextAttribute) Name() string { return t.name }

// Status returns the current provenance state.
func (t *TextAttribute) Status() Status { return t.status }

// Source returns the provenance label of the current value.
func (t *TextAttribute) Source() string { return t.source }

// SetInput records an explicitly supplied value.
func (t *TextAttribute) SetInput(v string) error {
	if v == "" {
		return &InvalidValueError{Name: t.name, Reason: "must not be empty"}
	}
	t.value = v
	t.status = StatusInput
	t.source = "user"
	return nil
}

// Fill records a completion-pass value; no-op when already resolved.
func (t *TextAttribute) Fill(v string, st Status, source string) error {
	if t.status.Resolved() {
		return nil
	}
	if st == StatusUnset || st.Terminal() {
		return &InvalidValueError{Name: t.name, Reason: "completion cannot assign status " + string(st)}
	}
	if v == "" {
		return &InvalidValueError{Name: t.name, Reason: "must not be empty"}
	}
	t.value = v
	t.status = st
	t.source = source
	return nil
}

// Overwrite replaces the value and marks the attribute CHANGED.
func (t *TextAttribute) Overwrite(v string) error {
	if v == "" {
		return &InvalidValueError{Name: t.name, Reason: "must not be empty"}
	}
	t.value = v
	t.status = StatusChanged
	t.source = "overwrite"
	return nil
}

// Value returns the resolved value.
func (t *TextAttribute) Value() (string, error) {
	if !t.status.Resolved() {
		return "", &IncompleteAttributeError{Name: t.name}
	}
	return t.value, nil
}
