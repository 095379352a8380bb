package resolver

import "fmt"

// ArchetypeNotFoundError reports a requested archetype id with no entry
// in the reference tables and no fallback default.
type ArchetypeNotFoundError struct {
	Kind      string
	Archetype string
}

func (e *ArchetypeNotFoundError) Error() string {
	return fmt.Sprintf("archetype %q not found for kind %q", e.Archetype, e.Kind)
}

// CountryNotSupportedError reports a location with no electrical-mix
// entry and no configured default location to fall back to. An empty
// Location means no location was supplied at all.
type CountryNotSupportedError struct {
	Location string
}

func (e *CountryNotSupportedError) Error() string {
	if e.Location == "" {
		return "no usage location supplied and no default location configured"
	}
	return fmt.Sprintf("no electrical mix factors for location %q", e.Location)
}
