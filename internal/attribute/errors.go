package attribute

import "fmt"

// InvalidValueError reports an explicit input that violates the
// attribute's declared domain constraint.
type InvalidValueError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %v for attribute %q: %s", e.Value, e.Name, e.Reason)
}

// IncompleteAttributeError reports a read of an unset attribute after
// completion should have resolved it. It is always an internal defect.
type IncompleteAttributeError struct {
	Name string
}

func (e *IncompleteAttributeError) Error() string {
	return fmt.Sprintf("attribute %q read before completion", e.Name)
}
