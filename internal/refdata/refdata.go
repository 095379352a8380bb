// Package refdata serves the reference data the completion and
// aggregation passes consume: archetype profiles from CSV tables and
// impact factors from a YAML file. Files are parsed lazily, once, and
// cached for the life of the process.
package refdata

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/verdant-group/impact-cli/internal/model"
	"github.com/verdant-group/impact-cli/internal/resolver"
)

// Store reads archetypes and factors from a data directory laid out as
//
//	<dir>/archetypes/<kind>.csv
//	<dir>/factors.yml
//
// It implements resolver.ArchetypeRepository and resolver.FactorProvider.
type Store struct {
	dir      string
	defaults map[string]string // kind -> archetype id the "default" alias points at

	flight singleflight.Group

	mu      sync.RWMutex
	kinds   map[string]*kindTable
	factors *factorFile
}

// NewStore creates a Store over dir. defaults maps archetype kinds to
// the profile id the "default" alias resolves to; it may be nil.
func NewStore(dir string, defaults map[string]string) *Store {
	return &Store{
		dir:      dir,
		defaults: defaults,
		kinds:    make(map[string]*kindTable),
	}
}

// ResolveArchetype returns the named profile for a kind. The id
// "default" resolves through the configured alias table first.
func (s *Store) ResolveArchetype(ctx context.Context, kind, archetypeID string) (resolver.Archetype, error) {
	if archetypeID == "default" {
		if mapped, ok := s.defaults[kind]; ok {
			archetypeID = mapped
		}
	}
	table, err := s.kindFor(ctx, kind)
	if err != nil {
		return nil, err
	}
	arch, ok := table.rows[archetypeID]
	if !ok {
		return nil, &resolver.ArchetypeNotFoundError{Kind: kind, Archetype: archetypeID}
	}
	return arch, nil
}

// ListArchetypes returns the profile ids of one kind, in file order.
func (s *Store) ListArchetypes(ctx context.Context, kind string) ([]string, error) {
	table, err := s.kindFor(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(table.ids))
	copy(out, table.ids)
	return out, nil
}

// ComponentFactor returns the per-unit embodied factor for a category.
func (s *Store) ComponentFactor(ctx context.Context, category string, criterion model.Criterion) (resolver.Factor, error) {
	f, err := s.factorsFor(ctx)
	if err != nil {
		return resolver.Factor{}, err
	}
	entry, ok := f.Manufacture[category][string(criterion)]
	if !ok {
		return resolver.Factor{}, eris.Errorf("refdata: no %s factor for category %q", criterion, category)
	}
	return entry.factor(), nil
}

// ElectricityFactor returns the electrical-mix factor for a location.
func (s *Store) ElectricityFactor(ctx context.Context, location string, criterion model.Criterion) (resolver.Factor, error) {
	f, err := s.factorsFor(ctx)
	if err != nil {
		return resolver.Factor{}, err
	}
	byCriterion, ok := f.Electricity[location]
	if !ok {
		return resolver.Factor{}, &resolver.CountryNotSupportedError{Location: location}
	}
	entry, ok := byCriterion[string(criterion)]
	if !ok {
		return resolver.Factor{}, eris.Errorf("refdata: no %s electricity factor for %q", criterion, location)
	}
	return entry.factor(), nil
}

// kindFor loads one archetype table, deduplicating concurrent loads.
func (s *Store) kindFor(ctx context.Context, kind string) (*kindTable, error) {
	s.mu.RLock()
	table, ok := s.kinds[kind]
	s.mu.RUnlock()
	if ok {
		return table, nil
	}

	v, err, _ := s.flight.Do("archetypes/"+kind, func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "refdata: load archetypes")
		}
		loaded, err := loadKindTable(s.dir, kind)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.kinds[kind] = loaded
		s.mu.Unlock()
		zap.L().Debug("loaded archetype table",
			zap.String("kind", kind),
			zap.Int("profiles", len(loaded.ids)))
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*kindTable), nil
}

func (s *Store) factorsFor(ctx context.Context) (*factorFile, error) {
	s.mu.RLock()
	f := s.factors
	s.mu.RUnlock()
	if f != nil {
		return f, nil
	}

	v, err, _ := s.flight.Do("factors", func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "refdata: load factors")
		}
		loaded, err := loadFactorFile(s.dir)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.factors = loaded
		s.mu.Unlock()
		zap.L().Debug("loaded factor tables",
			zap.Int("categories", len(loaded.Manufacture)),
			zap.Int("locations", len(loaded.Electricity)))
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*factorFile), nil
}
